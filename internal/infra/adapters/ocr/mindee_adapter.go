package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-insurance-bot/internal/domain"
	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.DocumentExtractor = (*MindeeAdapter)(nil)

// The vehicle document product is not wired up yet; the flow uses a fixed
// vehicle id until it is.
const mockVehicleID = "V-909091"

// MindeeAdapter implements adapter.DocumentExtractor against the Mindee
// passport OCR API. Base URL defaults to https://api.mindee.net/v1
// (configurable). Endpoint: /products/mindee/passport/v1/predict.
// Authorization: Token <MINDEE_API_KEY>
type MindeeAdapter struct {
	apiKey string
	base   string
	client *http.Client
	log    *zerolog.Logger
}

func NewMindeeAdapter(apiKey, base string, logger *zerolog.Logger) (*MindeeAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("mindee api key empty")
	}
	if base == "" {
		base = "https://api.mindee.net/v1"
	}
	return &MindeeAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 60 * time.Second},
		log:    logger,
	}, nil
}

type mindeeField struct {
	Value string `json:"value"`
}

type mindeePrediction struct {
	GivenNames []mindeeField `json:"given_names"`
	Surname    mindeeField   `json:"surname"`
	IDNumber   mindeeField   `json:"id_number"`
}

type mindeeResponse struct {
	Document struct {
		Inference struct {
			Prediction mindeePrediction `json:"prediction"`
		} `json:"inference"`
	} `json:"document"`
}

// ParsePassport uploads the image and maps the prediction to
// ExtractedData. Fields the service did not recognize come back as the
// Unknown sentinel; an unparseable body degrades to all-Unknown rather
// than an error, because the user can still eyeball and reject it at the
// confirm gate.
func (m *MindeeAdapter) ParsePassport(ctx context.Context, image []byte) (model.ExtractedData, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("document", "passport.jpg")
	if err != nil {
		return model.ExtractedData{}, err
	}
	if _, err := part.Write(image); err != nil {
		return model.ExtractedData{}, err
	}
	if err := mw.Close(); err != nil {
		return model.ExtractedData{}, err
	}

	url := m.base + "/products/mindee/passport/v1/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return model.ExtractedData{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Token "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return model.ExtractedData{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return model.ExtractedData{}, fmt.Errorf("%w: mindee http %d", domain.ErrExtractionFailed, resp.StatusCode)
	}

	var payload mindeeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		m.log.Warn().Err(err).Msg("unparseable mindee response, substituting sentinels")
		return model.NewExtractedData("", "", "", mockVehicleID), nil
	}

	p := payload.Document.Inference.Prediction
	name := ""
	if len(p.GivenNames) > 0 {
		name = p.GivenNames[0].Value
	}
	return model.NewExtractedData(name, p.Surname.Value, p.IDNumber.Value, mockVehicleID), nil
}
