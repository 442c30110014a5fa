package deepgram

import (
	"encoding/json"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/transcription"
)

type listenResponse struct {
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word           string  `json:"word"`
					Start          float64 `json:"start"`
					End            float64 `json:"end"`
					PunctuatedWord string  `json:"punctuated_word"`
				} `json:"words"`
				Paragraphs struct {
					Paragraphs []struct {
						Start     float64 `json:"start"`
						End       float64 `json:"end"`
						Sentences []struct {
							Text  string  `json:"text"`
							Start float64 `json:"start"`
							End   float64 `json:"end"`
						} `json:"sentences"`
					} `json:"paragraphs"`
				} `json:"paragraphs"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func parseResponse(body []byte) (transcription.Result, error) {
	var empty transcription.Result
	var payload listenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return empty, services.Wrap(
			services.ErrProvider, "deepgram", "transcribe",
			"Failed to decode Deepgram response", err)
	}
	if len(payload.Results.Channels) == 0 || len(payload.Results.Channels[0].Alternatives) == 0 {
		return empty, services.Wrap(
			services.ErrProvider, "deepgram", "transcribe",
			"Deepgram returned no transcript", nil)
	}

	channel := payload.Results.Channels[0]
	alt := channel.Alternatives[0]
	result := transcription.Result{
		Text:     transcription.CleanText(alt.Transcript),
		Language: channel.DetectedLanguage,
	}
	for _, para := range alt.Paragraphs.Paragraphs {
		for _, sentence := range para.Sentences {
			result.Segments = append(result.Segments, transcription.Segment{
				StartSec: sentence.Start,
				EndSec:   sentence.End,
				Text:     transcription.CleanText(sentence.Text),
			})
		}
	}
	return result, nil
}
