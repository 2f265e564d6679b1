package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/loop"
	"github.com/wricardo/mcp-training/memorymatch/game/report"
	"github.com/wricardo/mcp-training/memorymatch/game/results"
)

var (
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrConfigNotFound is wrapped into CreateSession errors for unknown configs.
	ErrConfigNotFound = errors.New("config not found")
)

// history page bounds
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithReporter records completed games through r.
func WithReporter(r *report.Reporter) Option {
	return func(s *gameServiceImpl) { s.reporter = r }
}

// WithNotifier pushes every state change to n.
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	reporter *report.Reporter
	notifier Notifier
	now      func() time.Time
}

// NewGameService creates a new game service instance and subscribes it to
// session updates.
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		reporter: report.New(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	sessions.SetUpdateHandler(s.handleUpdate)
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Info().Str("session", sess.ID).Str("config", configID).Msg("session created")
	return s.sessionInfo(sess, configID), nil
}

func (s *gameServiceImpl) configError(configName string, err error) error {
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr != nil || len(availableConfigs) == 0 {
		return fmt.Errorf("%w: '%s' (%v). Use /api/configs to list available configurations", ErrConfigNotFound, configName, err)
	}
	var configIDs []string
	for _, cfg := range availableConfigs {
		configIDs = append(configIDs, cfg.ConfigID)
	}
	return fmt.Errorf("%w: '%s' (%v). Available configs: %v", ErrConfigNotFound, configName, err, configIDs)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// Flip turns one card face up
func (s *gameServiceImpl) Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	out := sess.Loop.Flip(index)
	view := sess.Loop.View()

	result := &FlipResult{
		Accepted:  out.Accepted,
		Reason:    string(out.Reason),
		Index:     index,
		GameState: &view,
		Message:   view.Message,
		Events:    s.convertEvents(out.Events),
	}
	if out.Accepted {
		result.Face = view.Cards[index].Face
		result.Result = engine.FlipOpened
		switch {
		case out.Has(engine.EventPairMatched):
			result.Result = engine.FlipMatch
		case out.Has(engine.EventPairMismatched):
			result.Result = engine.FlipMismatch
		}
		log.Info().
			Str("session", sess.ID).
			Int("index", index).
			Str("result", string(result.Result)).
			Int("moves", view.Moves).
			Int("pairs", view.MatchedPairs).
			Msg("flip")
	}
	return result, nil
}

// Restart deals a new board at any point
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*ActionResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	out := sess.Loop.Restart()
	log.Info().Str("session", sess.ID).Msg("restart")
	return s.actionResult(sess, out), nil
}

// Replay dismisses the end-of-game summary and deals a new board
func (s *gameServiceImpl) Replay(ctx context.Context, sessionID string) (*ActionResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	out := sess.Loop.Replay()
	if out.Accepted {
		log.Info().Str("session", sess.ID).Msg("replay")
	}
	return s.actionResult(sess, out), nil
}

// GetGameState retrieves the current board view
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.BoardView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	view := sess.Loop.View()
	return &view, nil
}

// GetFlipHistory returns paginated flip history
func (s *gameServiceImpl) GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var history []engine.FlipHistoryEntry
	sess.Loop.Read(func(e engine.Engine) {
		history = append(history, e.GetFlipHistory()...)
	})
	return paginate(history, opts), nil
}

func paginate(history []engine.FlipHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	flips := []engine.FlipHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				flips = append(flips, history[i])
			}
		} else {
			flips = append(flips, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Flips:       flips,
		TotalFlips:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// Leaderboard returns the best completed games
func (s *gameServiceImpl) Leaderboard(ctx context.Context, configName string, limit int) ([]results.Result, error) {
	return s.reporter.Leaderboard(ctx, configName, limit)
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// handleUpdate records finished games and forwards every change to the notifier.
func (s *gameServiceImpl) handleUpdate(sessionID string, u loop.Update) {
	if u.Outcome.Has(engine.EventGameCompleted) {
		if _, err := s.reporter.Record(context.Background(), sessionID, u.State); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("failed to record result")
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(StateUpdate{
			SessionID: sessionID,
			Event:     u.Event.Kind(),
			Events:    s.convertEvents(u.Outcome.Events),
			GameState: u.View,
		})
	}
}

func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sess.ID); err != nil {
		log.Debug().Err(err).Str("session", sess.ID).Msg("failed to update last access")
	}
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	view := sess.Loop.View()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      &view,
		GameConfig:     sess.Config,
	}
}

func (s *gameServiceImpl) actionResult(sess *Session, out engine.Outcome) *ActionResult {
	view := sess.Loop.View()
	return &ActionResult{
		Accepted:  out.Accepted,
		Reason:    string(out.Reason),
		GameState: &view,
		Message:   view.Message,
		Events:    s.convertEvents(out.Events),
	}
}

func (s *gameServiceImpl) convertEvents(events []engine.GameEvent) []GameEvent {
	if len(events) == 0 {
		return nil
	}
	now := s.now()
	out := make([]GameEvent, 0, len(events))
	for _, e := range events {
		out = append(out, GameEvent{
			Type:      string(e.Type),
			Message:   e.Message,
			Timestamp: now,
			Indices:   e.Indices,
		})
	}
	return out
}
