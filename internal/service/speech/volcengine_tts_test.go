package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/speech"
)

func TestResolveTTSResourceCandidates(t *testing.T) {
	tests := []struct {
		name  string
		voice string
		want  []string
	}{
		{name: "default voice", voice: "", want: []string{"volc.service_type.10029", "seed-tts-2.0"}},
		{name: "mega clone voice", voice: "S_clone_speaker", want: []string{"volc.megatts.default"}},
		{name: "bigtts voice", voice: "en_male_corey_emo_v2_mars_bigtts", want: []string{"seed-tts-2.0", "volc.service_type.10029"}},
		{name: "legacy 1.0 voice", voice: "en_male_organizer", want: []string{"volc.service_type.10029", "seed-tts-2.0"}},
	}

	for _, tt := range tests {
		got := resolveTTSResourceCandidates(tt.voice)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: resolveTTSResourceCandidates(%q) = %v, want %v", tt.name, tt.voice, got, tt.want)
		}
	}
}

func TestResolveTTSSpeakerCandidates(t *testing.T) {
	tests := []struct {
		name     string
		request  string
		fallback string
		want     []string
	}{
		{name: "request and fallback", request: "custom-voice", fallback: "en_female_amy_jupiter_bigtts", want: []string{"custom-voice", "en_female_amy_jupiter_bigtts"}},
		{name: "request empty", request: "", fallback: "en_male_glen_emo_v2_mars_bigtts", want: []string{"en_male_glen_emo_v2_mars_bigtts"}},
		{name: "duplicates ignored", request: "EN_voice", fallback: "en_voice", want: []string{"EN_voice"}},
		{name: "persona alias", request: "tax-monster", fallback: "", want: []string{"en_male_corey_emo_v2_mars_bigtts"}},
		{name: "nothing configured", request: "", fallback: "", want: []string{"en_female_amy_jupiter_bigtts"}},
	}

	for _, tt := range tests {
		got := resolveTTSSpeakerCandidates(tt.request, tt.fallback)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: resolveTTSSpeakerCandidates(%q, %q) = %v, want %v", tt.name, tt.request, tt.fallback, got, tt.want)
		}
	}
}

func TestIsResourceMismatchError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "unrelated error", err: fmt.Errorf("some other error"), want: false},
		{name: "mismatch substring", err: fmt.Errorf("TTS error 45000000: resource ID is mismatched with speaker related resource"), want: true},
	}

	for _, tc := range cases {
		if got := isResourceMismatchError(tc.err); got != tc.want {
			t.Errorf("%s: isResourceMismatchError(%v) = %v, want %v", tc.name, tc.err, got, tc.want)
		}
	}
}

func TestEncodeDecodeEventFrame(t *testing.T) {
	payload, err := CompressPayload([]byte(`{"code":0}`), GzipCompression)
	if err != nil {
		t.Fatalf("CompressPayload err: %v", err)
	}

	in := &Message{
		Header:      NewHeader(FullServerResponse, WithEvent, JSONSerialization, GzipCompression),
		EventType:   EventTypeSessionFinished,
		SessionID:   "session-1",
		PayloadSize: uint32(len(payload)),
		Payload:     payload,
	}

	raw, err := EncodeMessage(in)
	if err != nil {
		t.Fatalf("EncodeMessage err: %v", err)
	}

	out, err := DecodeMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeMessage err: %v", err)
	}
	if out.EventType != EventTypeSessionFinished || out.SessionID != "session-1" {
		t.Fatalf("event metadata lost: %+v", out)
	}

	body, err := DecompressPayload(out.Payload, out.Header.CompressionMethod)
	if err != nil || string(body) != `{"code":0}` {
		t.Fatalf("payload mismatch: %q, %v", body, err)
	}
}

func TestDecodeHeaderRejectsVersion(t *testing.T) {
	if _, err := DecodeHeader([]byte{0x21, 0x10, 0x10, 0x00}); err == nil {
		t.Fatal("expected unsupported version error")
	}
	if _, err := DecodeHeader([]byte{0x11}); err == nil {
		t.Fatal("expected short header error")
	}
}

// fakeVolcengine replies to each connection according to the resource id header.
func fakeVolcengine(t *testing.T, audio []byte, mismatchResource string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource := r.Header.Get("X-Api-Resource-Id")
		if r.Header.Get("X-Api-App-Key") != "app" || r.Header.Get("X-Api-Access-Key") != "token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("read request: %v", err)
			return
		}
		req, err := DecodeMessage(bytes.NewReader(data))
		if err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		var body volcengineTTSRequest
		if err := json.Unmarshal(req.Payload, &body); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}

		if resource == mismatchResource {
			errPayload := []byte("resource ID is mismatched with speaker related resource")
			frame, _ := EncodeMessage(&Message{
				Header:      NewHeader(ErrorMessage, NoSequenceNumber, JSONSerialization, NoCompression),
				ErrorCode:   45000000,
				PayloadSize: uint32(len(errPayload)),
				Payload:     errPayload,
			})
			_ = conn.WriteMessage(websocket.BinaryMessage, frame)
			return
		}

		half := len(audio) / 2
		chunk, _ := CompressPayload(audio[:half], GzipCompression)
		frame, _ := EncodeMessage(&Message{
			Header:      NewHeader(AudioOnlyServerResponse, NoSequenceNumber, NoSerialization, GzipCompression),
			PayloadSize: uint32(len(chunk)),
			Payload:     chunk,
		})
		_ = conn.WriteMessage(websocket.BinaryMessage, frame)

		final, _ := json.Marshal(map[string]any{
			"reqid":    "req-1",
			"code":     0,
			"data":     base64.StdEncoding.EncodeToString(audio[half:]),
			"addition": map[string]string{"duration": "1200"},
		})
		frame, _ = EncodeMessage(&Message{
			Header:      NewHeader(FullServerResponse, WithEvent, JSONSerialization, NoCompression),
			EventType:   EventTypeSessionFinished,
			SessionID:   body.User.UID,
			PayloadSize: uint32(len(final)),
			Payload:     final,
		})
		_ = conn.WriteMessage(websocket.BinaryMessage, frame)
	}))
}

func testSpeechConfig() config.SpeechConfig {
	return config.SpeechConfig{
		Provider:    config.SpeechProviderVolcengine,
		Voice:       "tax-monster",
		AppID:       "app",
		AccessToken: "token",
		TTSSpeed:    1,
		TTSVolume:   1,
		TTSLanguage: "en-US",
	}
}

func TestVolcengineSynthesizeCollectsAudio(t *testing.T) {
	audio := []byte("ID3-fake-mp3-bytes")
	srv := fakeVolcengine(t, audio, "")
	defer srv.Close()

	client := NewVolcengineTTSClient(testSpeechConfig(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.SynthesizeSpeech(ctx, &speech.TTSRequest{SessionID: "s1", Text: "A W-2 reports wages."})
	if err != nil {
		t.Fatalf("SynthesizeSpeech err: %v", err)
	}
	if !bytes.Equal(resp.AudioData, audio) {
		t.Fatalf("audio mismatch: %q", resp.AudioData)
	}
	if resp.RequestID != "req-1" || resp.Duration != 1200 || resp.SessionID != "s1" {
		t.Fatalf("unexpected response metadata %+v", resp)
	}
}

func TestVolcengineSynthesizeFallsBackOnResourceMismatch(t *testing.T) {
	audio := []byte("ID3-fallback")
	// bigtts voices try seed-tts-2.0 first.
	srv := fakeVolcengine(t, audio, "seed-tts-2.0")
	defer srv.Close()

	client := NewVolcengineTTSClient(testSpeechConfig(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.SynthesizeSpeech(ctx, &speech.TTSRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("SynthesizeSpeech err: %v", err)
	}
	if !bytes.Equal(resp.AudioData, audio) {
		t.Fatalf("audio mismatch: %q", resp.AudioData)
	}
}

func TestVolcengineSynthesizeRejectsEmptyText(t *testing.T) {
	client := NewVolcengineTTSClient(testSpeechConfig(), "ws://127.0.0.1:1")
	if _, err := client.SynthesizeSpeech(context.Background(), &speech.TTSRequest{Text: "  "}); err == nil {
		t.Fatal("expected empty text error")
	}
}
