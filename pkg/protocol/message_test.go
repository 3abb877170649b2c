package protocol

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "mic message",
			msgType: TypeMic,
			data:    MicData{Format: "pcm16", SampleRate: 16000, Channels: 1},
		},
		{
			name:    "transcript message",
			msgType: TypeTranscript,
			data:    TranscriptData{Role: RoleUser, Text: "highlight the mug"},
		},
		{
			name:    "nil data",
			msgType: TypeInterrupt,
			data:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	msg, err := NewAudioMessage(pcm, 24000)
	if err != nil {
		t.Fatalf("NewAudioMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeAudio {
		t.Errorf("parsed type = %v, want %v", parsed.Type, TypeAudio)
	}

	var audio AudioData
	if err := parsed.ParseData(&audio); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if audio.SampleRate != 24000 || audio.Channels != 1 {
		t.Errorf("unexpected audio data: %+v", audio)
	}

	decoded, err := base64.StdEncoding.DecodeString(audio.Data)
	if err != nil {
		t.Fatalf("decode audio payload: %v", err)
	}
	if string(decoded) != string(pcm) {
		t.Error("audio payload did not survive the round trip")
	}
}

func TestParseMessageInvalidJSON(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestControlMessage(t *testing.T) {
	msg, err := NewMessage(TypeControl, ControlData{
		Action: ActionDismissImage,
		Target: "img-1",
	})
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	bytes, _ := msg.Bytes()
	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	var ctrl ControlData
	if err := parsed.ParseData(&ctrl); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if ctrl.Action != ActionDismissImage || ctrl.Target != "img-1" {
		t.Errorf("unexpected control data: %+v", ctrl)
	}
}

func TestPongLatency(t *testing.T) {
	ping := PingData{ID: "p1", Timestamp: time.Now().UnixMilli() - 25}
	msg, err := NewPongMessage(ping)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	var pong PongData
	if err := msg.ParseData(&pong); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pong.ID != "p1" || pong.PingTS != ping.Timestamp {
		t.Errorf("unexpected pong: %+v", pong)
	}
	if pong.LatencyMs < 25 {
		t.Errorf("latency = %d, want >= 25", pong.LatencyMs)
	}
}
