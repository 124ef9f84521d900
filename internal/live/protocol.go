package live

import (
	"google.golang.org/genai"
)

// Outbound frames. Exactly one top-level field is set per message.

type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *ToolResponse  `json:"toolResponse,omitempty"`
	ClientContent *ClientContent `json:"clientContent,omitempty"`
}

type Setup struct {
	Model                    string            `json:"model"`
	SystemInstruction        *genai.Content    `json:"system_instruction,omitempty"`
	Tools                    []ToolSet         `json:"tools,omitempty"`
	GenerationConfig         *GenerationConfig `json:"generationConfig,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

type ToolSet struct {
	FunctionDeclarations []*genai.FunctionDeclaration `json:"functionDeclarations"`
}

type GenerationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

type SpeechConfig struct {
	VoiceConfig VoiceConfig `json:"voiceConfig"`
}

type VoiceConfig struct {
	PrebuiltVoiceConfig PrebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type RealtimeInput struct {
	MediaChunks []MediaChunk `json:"mediaChunks"`
}

// MediaChunk carries base64 data; audio is PCM16 16 kHz mono, video is JPEG.
type MediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type ToolResponse struct {
	FunctionResponses []*genai.FunctionResponse `json:"functionResponses"`
}

// ClientContent injects conversation turns. TurnComplete false asks the model not to respond.
type ClientContent struct {
	Turns        []*genai.Content `json:"turns"`
	TurnComplete bool             `json:"turnComplete"`
}

// Inbound frames. Fields may coexist in one message.

type ServerMessage struct {
	SetupComplete        *struct{}             `json:"setupComplete,omitempty"`
	ServerContent        *ServerContent        `json:"serverContent,omitempty"`
	ToolCall             *ToolCall             `json:"toolCall,omitempty"`
	ToolCallCancellation *ToolCallCancellation `json:"toolCallCancellation,omitempty"`
	GoAway               *GoAway               `json:"goAway,omitempty"`
}

type ServerContent struct {
	ModelTurn           *ModelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

type ModelTurn struct {
	Parts []ServerPart `json:"parts"`
}

type ServerPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData keeps the payload as the base64 text received on the wire.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type Transcription struct {
	Text string `json:"text"`
}

type ToolCall struct {
	FunctionCalls []*genai.FunctionCall `json:"functionCalls"`
}

type ToolCallCancellation struct {
	IDs []string `json:"ids"`
}

type GoAway struct {
	TimeLeft string `json:"timeLeft"`
}

func newSetup(model, instruction, voice string, decls []*genai.FunctionDeclaration) ClientMessage {
	setup := &Setup{
		Model: model,
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &SpeechConfig{
				VoiceConfig: VoiceConfig{PrebuiltVoiceConfig: PrebuiltVoiceConfig{VoiceName: voice}},
			},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if instruction != "" {
		setup.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
	}
	if len(decls) > 0 {
		setup.Tools = []ToolSet{{FunctionDeclarations: decls}}
	}
	return ClientMessage{Setup: setup}
}

func newMediaMessage(mimeType, data string) ClientMessage {
	return ClientMessage{RealtimeInput: &RealtimeInput{
		MediaChunks: []MediaChunk{{MimeType: mimeType, Data: data}},
	}}
}

func newContextMessage(text string) ClientMessage {
	return ClientMessage{ClientContent: &ClientContent{
		Turns:        []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		TurnComplete: false,
	}}
}
