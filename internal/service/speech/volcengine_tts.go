package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/speech"
)

// DefaultVolcengineTTSURL is the unidirectional streaming TTS endpoint.
const DefaultVolcengineTTSURL = "wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"

// VolcengineTTSClient synthesizes speech over the Volcengine WebSocket protocol.
type VolcengineTTSClient struct {
	config   config.SpeechConfig
	endpoint string
	dialer   *websocket.Dialer
}

type ttsServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
	Addition struct {
		Duration string `json:"duration,omitempty"`
	} `json:"addition,omitempty"`
}

type volcengineTTSRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string                   `json:"speaker"`
		Text        string                   `json:"text"`
		AudioParams volcengineTTSAudioParams `json:"audio_params"`
		Additions   string                   `json:"additions,omitempty"`
		Language    string                   `json:"language,omitempty"`
	} `json:"req_params"`
}

type volcengineTTSAudioParams struct {
	Format          string  `json:"format"`
	SampleRate      int     `json:"sample_rate"`
	EnableTimestamp bool    `json:"enable_timestamp"`
	SpeedRatio      float32 `json:"speed_ratio,omitempty"`
	VolumeRatio     float32 `json:"volume_ratio,omitempty"`
}

// NewVolcengineTTSClient creates a client for endpoint; an empty endpoint uses the public URL.
func NewVolcengineTTSClient(cfg config.SpeechConfig, endpoint string) *VolcengineTTSClient {
	if endpoint == "" {
		endpoint = DefaultVolcengineTTSURL
	}
	return &VolcengineTTSClient{
		config:   cfg,
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
	}
}

// SynthesizeSpeech tries each speaker candidate, and each resource id per speaker,
// moving on only when the service reports a resource/speaker mismatch.
func (c *VolcengineTTSClient) SynthesizeSpeech(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("TTS text is empty")
	}

	appKey, accessKey, err := resolveCredentials(c.config)
	if err != nil {
		return nil, err
	}

	speakers := resolveTTSSpeakerCandidates(strings.TrimSpace(req.Voice), strings.TrimSpace(c.config.Voice))
	var lastMismatch error

	for speakerIdx, speaker := range speakers {
		for resourceIdx, resourceID := range resolveTTSResourceCandidates(speaker) {
			resp, attemptErr := c.synthesizeWithResource(ctx, req, appKey, accessKey, speaker, resourceID)
			if attemptErr == nil {
				if resourceIdx > 0 || speakerIdx > 0 {
					log.Printf("[tts] voice %s succeeded with fallback resource %s", speaker, resourceID)
				}
				return resp, nil
			}

			if !isResourceMismatchError(attemptErr) {
				return nil, attemptErr
			}
			log.Printf("[tts] voice %s resource %s mismatch: %v", speaker, resourceID, attemptErr)
			lastMismatch = attemptErr
		}
	}

	if lastMismatch != nil {
		return nil, lastMismatch
	}
	return nil, fmt.Errorf("TTS synthesis failed: no compatible resource id for voices %v", speakers)
}

func (c *VolcengineTTSClient) synthesizeWithResource(ctx context.Context, req *speech.TTSRequest, appKey, accessKey, speaker, resourceID string) (*speech.TTSResponse, error) {
	connectID := uuid.NewString()

	header := http.Header{}
	header.Set("X-Api-App-Key", appKey)
	header.Set("X-Api-Access-Key", accessKey)
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS WebSocket: %w", err)
	}
	defer conn.Close()

	if resp != nil {
		if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
			log.Printf("[tts] connected logid=%s", logid)
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	ttsReq, userUID := c.buildTTSRequest(req, speaker)
	payload, err := json.Marshal(ttsReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}

	frame, err := EncodeMessage(CreateFullClientRequest(payload, NoCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to encode TTS request: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("failed to send TTS request: %w", err)
	}

	var (
		audio    bytes.Buffer
		reqID    string
		duration int64
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read TTS response: %w", err)
		}

		msg, err := DecodeMessage(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode TTS message: %w", err)
		}

		body, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress TTS payload: %w", err)
		}

		switch msg.Header.MessageType {
		case ErrorMessage:
			return nil, fmt.Errorf("TTS error %d: %s", msg.ErrorCode, string(body))

		case AudioOnlyServerResponse:
			audio.Write(body)

		case FullServerResponse:
			var serverResp ttsServerMessage
			if len(body) > 0 {
				if err := json.Unmarshal(body, &serverResp); err != nil {
					log.Printf("[tts] failed to unmarshal response payload: %v", err)
				} else {
					if serverResp.Code != 0 && serverResp.Code != 3000 {
						return nil, fmt.Errorf("TTS API error %d: %s", serverResp.Code, serverResp.Message)
					}
					if serverResp.ReqID != "" {
						reqID = serverResp.ReqID
					}
					if parsed, err := strconv.ParseInt(serverResp.Addition.Duration, 10, 64); err == nil {
						duration = parsed
					}
					if serverResp.Data != "" {
						chunk, err := base64.StdEncoding.DecodeString(serverResp.Data)
						if err != nil {
							return nil, fmt.Errorf("failed to decode base64 audio chunk: %w", err)
						}
						audio.Write(chunk)
					}
				}
			}

			finished := (msg.hasEvent() && msg.EventType == EventTypeSessionFinished) ||
				msg.IsLastPacket() || serverResp.Sequence < 0
			if !finished {
				continue
			}

			if audio.Len() == 0 {
				return nil, fmt.Errorf("TTS audio is empty")
			}
			if reqID == "" {
				reqID = connectID
			}
			return &speech.TTSResponse{
				SessionID: userUID,
				AudioData: audio.Bytes(),
				Duration:  duration,
				Format:    "mp3",
				Voice:     speaker,
				RequestID: reqID,
				CreatedAt: time.Now(),
			}, nil

		default:
			log.Printf("[tts] unexpected message type: %d", msg.Header.MessageType)
		}
	}
}

func (c *VolcengineTTSClient) buildTTSRequest(req *speech.TTSRequest, speaker string) (*volcengineTTSRequest, string) {
	ttsReq := &volcengineTTSRequest{}

	userUID := strings.TrimSpace(req.SessionID)
	if userUID == "" {
		userUID = uuid.NewString()
	}
	ttsReq.User.UID = userUID

	ttsReq.ReqParams.Speaker = speaker
	ttsReq.ReqParams.Text = req.Text
	ttsReq.ReqParams.AudioParams.Format = "mp3"
	ttsReq.ReqParams.AudioParams.SampleRate = 24000

	speed := req.Speed
	if speed <= 0 {
		speed = c.config.TTSSpeed
	}
	if speed > 0 && speed != 1.0 {
		ttsReq.ReqParams.AudioParams.SpeedRatio = speed
	}

	volume := req.Volume
	if volume <= 0 {
		volume = c.config.TTSVolume
	}
	if volume > 0 && volume != 1.0 {
		ttsReq.ReqParams.AudioParams.VolumeRatio = volume
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = strings.TrimSpace(c.config.TTSLanguage)
	}
	ttsReq.ReqParams.Language = language
	ttsReq.ReqParams.Additions = `{"disable_markdown_filter":false}`

	return ttsReq, userUID
}

func resolveTTSResourceCandidates(voice string) []string {
	const (
		defaultResource = "volc.service_type.10029"
		megaResource    = "volc.megatts.default"
		seedResource    = "seed-tts-2.0"
	)

	voice = strings.TrimSpace(voice)
	if voice == "" {
		return []string{defaultResource, seedResource}
	}

	if strings.HasPrefix(voice, "S_") {
		return []string{megaResource}
	}

	normalized := strings.ToLower(voice)
	for _, hint := range []string{"bigtts", "seed", "megatts", "uranus", "venus", "jupiter", "saturn", "mars"} {
		if strings.Contains(normalized, hint) {
			return []string{seedResource, defaultResource}
		}
	}

	return []string{defaultResource, seedResource}
}

var voiceAliases = map[string]string{
	"tax-monster": "en_male_corey_emo_v2_mars_bigtts",
	"en_default":  "en_female_amy_jupiter_bigtts",
	"alloy":       "en_female_amy_jupiter_bigtts",
}

func resolveTTSSpeakerCandidates(requested, fallback string) []string {
	var candidates []string

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if mapped, ok := voiceAliases[strings.ToLower(s)]; ok {
			s = mapped
		}
		for _, existing := range candidates {
			if strings.EqualFold(existing, s) {
				return
			}
		}
		candidates = append(candidates, s)
	}

	add(requested)
	add(fallback)

	if len(candidates) == 0 {
		return []string{voiceAliases["en_default"]}
	}
	return candidates
}

func isResourceMismatchError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "resource ID is mismatched with speaker related resource")
}
