package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tripsearch_backend/internal/search/domain"

	"github.com/google/uuid"
)

// LLMConfig is the subset of application config the model client needs.
type LLMConfig interface {
	GetLLMAPIKey() string
	GetLLMBaseURL() string
	GetLLMModel() string
	IsLLMEnabled() bool
}

// LLMClient talks to an OpenAI-compatible chat-completions endpoint and asks
// for travel options as strict JSON. It is the first fallback tier; anything
// that does not parse into valid records falls through to the synthetic tier.
type LLMClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewLLMClient returns nil when no key is configured; a nil client disables
// the model tier.
func NewLLMClient(cfg LLMConfig) *LLMClient {
	if !cfg.IsLLMEnabled() {
		return nil
	}
	return &LLMClient{
		apiKey:  cfg.GetLLMAPIKey(),
		baseURL: strings.TrimRight(cfg.GetLLMBaseURL(), "/"),
		model:   cfg.GetLLMModel(),
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error interface{} `json:"error"`
}

// llmOption is the shape the model is instructed to emit per record.
type llmOption struct {
	Provider      string  `json:"provider"`
	ScheduleCode  string  `json:"scheduleCode"`
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Price         float64 `json:"price"`
}

const systemPrompt = "You generate plausible illustrative travel search results " +
	"for the Indian market. Respond with a JSON array only, no prose, no markdown. " +
	"Each element: {\"provider\",\"scheduleCode\",\"departureTime\",\"arrivalTime\",\"price\"}. " +
	"Times are 24-hour HH:MM local clock strings, prices are positive INR integers, " +
	"earlier departures should be cheaper. Produce 5 to 8 elements."

// GenerateOptions asks the model for a result set and validates every record.
// Invalid records are dropped; an empty valid set is an error so the caller
// can degrade to the synthetic tier.
func (c *LLMClient) GenerateOptions(ctx context.Context, req Request) ([]domain.Option, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: c.userPrompt(req)},
		},
		"temperature": 0.8,
	}

	jsonBody, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model api status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("model api error: %v", result.Error)
	}
	if len(result.Choices) == 0 {
		return nil, errors.New("model api error: empty choices")
	}

	return c.parseOptions(result.Choices[0].Message.Content, req)
}

func (c *LLMClient) userPrompt(req Request) string {
	switch req.Category {
	case domain.CategoryHotel:
		return fmt.Sprintf("Hotels in %s, check-in %s, check-out %s.", req.City, req.Date, req.Checkout)
	default:
		return fmt.Sprintf("%s options from %s to %s on %s.", req.Category, req.Origin, req.Destination, req.Date)
	}
}

func (c *LLMClient) parseOptions(content string, req Request) ([]domain.Option, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw []llmOption
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("model output is not a JSON array: %w", err)
	}

	options := make([]domain.Option, 0, len(raw))
	for _, r := range raw {
		if r.Provider == "" || r.Price <= 0 {
			continue
		}

		departure := r.DepartureTime
		arrival := r.ArrivalTime
		if req.Category != domain.CategoryHotel {
			if _, ok := domain.ParseClock(departure); !ok {
				continue
			}
			if _, ok := domain.ParseClock(arrival); !ok {
				continue
			}
		}

		destination := req.Destination
		if req.Category == domain.CategoryHotel {
			destination = req.City
		}

		options = append(options, domain.Option{
			ID:            fmt.Sprintf("gen-%s", uuid.NewString()[:8]),
			Provider:      r.Provider,
			ScheduleCode:  r.ScheduleCode,
			DepartureTime: departure,
			ArrivalTime:   arrival,
			Duration:      domain.DurationText(departure, arrival),
			Price:         float64(int(r.Price)),
			Currency:      "INR",
			Origin:        req.Origin,
			Destination:   destination,
			Source:        domain.SourceGenerated,
		})
	}

	if len(options) == 0 {
		return nil, errors.New("model output contained no valid records")
	}
	return options, nil
}
