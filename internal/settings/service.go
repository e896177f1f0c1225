package settings

import (
	"context"
)

// Settings holds user-adjustable runtime state that must survive restarts.
// The Gemini API key lives here rather than only in the environment so the
// set-key command can persist it once and every later run picks it up.
type Settings struct {
	GeminiAPIKey string `json:"gemini_api_key"`
	SearchLimit  int    `json:"search_limit"`
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, set *Settings) error {
	return s.repo.Update(ctx, set)
}

// SetGeminiAPIKey persists the credential, leaving other settings intact.
func (s *Service) SetGeminiAPIKey(ctx context.Context, key string) error {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	current.GeminiAPIKey = key
	return s.repo.Update(ctx, current)
}

// GeminiAPIKey resolves the stored credential, preferring the environment
// override when one is set. An empty result means the gemini provider is
// unavailable, which is a normal state, not an error.
func (s *Service) GeminiAPIKey(ctx context.Context, envKey string) (string, error) {
	if envKey != "" {
		return envKey, nil
	}
	current, err := s.repo.Get(ctx)
	if err != nil {
		return "", err
	}
	return current.GeminiAPIKey, nil
}
