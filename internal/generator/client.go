// Package generator реализует клиента внешнего генератора альтернатив.
//
// Контракт двухветочный: либо ровно четыре короткие альтернативы от
// внешнего API, либо фиксированный запасной список FallbackAlternatives.
// Подстановку запасного списка выполняет вызывающая сторона.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// AlternativesCount сколько альтернатив ожидается от генератора.
const AlternativesCount = 4

// FallbackAlternatives фиксированный запасной список на случай любой
// ошибки генератора: сетевой сбой, таймаут, неполный ответ.
var FallbackAlternatives = []string{
	"İlk seçeneğini dene",
	"Alternatif bir yol bul",
	"Biraz bekle ve düşün",
	"Cesaretini topla ve karar ver",
}

// padAlternatives дополняет неполный список до четырёх пунктов.
var padAlternatives = []string{
	"Biraz daha düşün",
	"Arkadaşlarına danış",
	"Başka seçenekleri araştır",
	"Kalbin ne diyor dinle",
}

const systemPrompt = "Sen bir karar danışmanısın. Kullanıcının kararsızlık yaşadığı durumlar için " +
	"4 adet pratik, akılcı ve farklı alternatif üretmelisin. Her alternatif kısa ve net olsun, " +
	"her alternatifi yeni satırda yaz, numaralandırma yapma."

// Client клиент HTTP API генератора альтернатив.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиента с явным таймаутом запросов: зависший вызов
// генератора обрывается и обрабатывается как обычная ошибка с fallback.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate запрашивает у внешнего API четыре альтернативы для текста
// нерешительности. Ответ разбирается построчно, нумерация и маркеры
// отбрасываются, неполный список дополняется до четырёх пунктов.
func (c *Client) Generate(ctx context.Context, decisionText string) ([]string, error) {
	const op = "generator.Generate"

	body, err := json.Marshal(generateRequest{
		System: systemPrompt,
		Prompt: "Bu kararsızlık durumu için 4 farklı alternatif üret: " + decisionText,
	})
	if err != nil {
		return nil, errors.New(op + ": " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.New(op + ": " + err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(op + ": unexpected status " + resp.Status)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, errors.New(op + ": " + err.Error())
	}

	alternatives := ParseAlternatives(genResp.Text)
	if len(alternatives) == 0 {
		return nil, errors.New(op + ": empty generator reply")
	}
	return alternatives, nil
}

// ParseAlternatives чистит сырой текст генератора: режет на строки,
// убирает нумерацию и маркеры, дополняет до четырёх и обрезает лишнее.
func ParseAlternatives(raw string) []string {
	var alternatives []string
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		clean := strings.TrimLeft(strings.TrimSpace(line), "0123456789.- ")
		if len(clean) > 3 {
			alternatives = append(alternatives, clean)
		}
	}
	if len(alternatives) == 0 {
		return nil
	}
	if len(alternatives) < AlternativesCount {
		alternatives = append(alternatives, padAlternatives...)
	}
	return alternatives[:AlternativesCount]
}
