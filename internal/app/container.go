package app

import (
	"context"
	"database/sql"
	"os/exec"

	"github.com/doeshing/nixsay/internal/application/doctor"
	"github.com/doeshing/nixsay/internal/application/interpret"
	"github.com/doeshing/nixsay/internal/application/learning"
	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/config"
	"github.com/doeshing/nixsay/internal/infrastructure/executor"
	"github.com/doeshing/nixsay/internal/infrastructure/feedback"
	"github.com/doeshing/nixsay/internal/infrastructure/knowledge"
	"github.com/doeshing/nixsay/internal/infrastructure/parser"
	"github.com/doeshing/nixsay/internal/infrastructure/security"
	"github.com/doeshing/nixsay/internal/infrastructure/storage"
	"github.com/doeshing/nixsay/internal/pkg/filesystem"
	"github.com/doeshing/nixsay/internal/pkg/logger"
	"github.com/doeshing/nixsay/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config           domain.Config
	ConfigLoader     *config.FileLoader
	Logger           *logger.ZapLogger
	Knowledge        *knowledge.Store
	Guardrail        *security.Guardrail
	Parser           *parser.Parser
	Recorder         *feedback.Recorder
	InterpretService *interpret.Service
	LearningService  *learning.Service
	DoctorService    *doctor.Service

	db *sql.DB
}

// BuildContainer constructs the dependency graph. A feedback database that
// cannot be opened degrades recording to memory; it never fails startup.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	log, err := logger.New(verbose)
	if err != nil {
		return nil, err
	}

	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	kb, err := knowledge.NewStore(knowledge.Options{
		MaxEditDistance: cfg.GetMaxEditDistance(),
		HomeDir:         filesystem.UserHomeDir(),
	})
	if err != nil {
		return nil, err
	}

	// Overrides go in before learned aliases so a learned alias can target an
	// override entry and never displaces an override binding.
	overrides, err := knowledge.LoadOverrides(cfg.Knowledge.OverridesFile)
	if err != nil {
		return nil, err
	}
	if err := kb.Apply(overrides, domain.LayerOverride); err != nil {
		return nil, err
	}

	var (
		db      *sql.DB
		repo    ports.FeedbackRepository
		aliases ports.AliasRepository
	)
	if cfg.Feedback.Enabled {
		db, err = storage.Open(ctx, cfg.Feedback.Database)
		if err != nil {
			log.Error("feedback database unavailable", err, map[string]interface{}{
				"path": cfg.Feedback.Database,
			})
		} else {
			repo = feedback.NewSQLiteStore(db)
			aliasStore := knowledge.NewSQLiteAliasStore(db)
			aliases = aliasStore
			if n, err := kb.LoadLearned(ctx, aliasStore); err != nil {
				log.Warn("learned aliases not loaded", map[string]interface{}{"error": err.Error()})
			} else {
				log.Debug("learned aliases loaded", map[string]interface{}{"count": n})
			}
		}
	}

	guardrail, err := security.NewGuardrail(security.Options{
		RulesFile:     cfg.Security.RulesFile,
		UnmatchedTier: cfg.GetUnmatchedTier(),
	})
	if err != nil {
		return nil, err
	}

	intentParser := parser.New(kb, parser.Options{
		ConfidenceThreshold: cfg.GetConfidenceThreshold(),
		MaxEditDistance:     cfg.GetMaxEditDistance(),
		Logger:              log,
	})

	var recorder *feedback.Recorder
	if cfg.Feedback.Enabled {
		recorder = feedback.NewRecorder(repo, feedback.Options{
			BufferSize:  cfg.GetFeedbackBufferSize(),
			MemoryLimit: cfg.GetFeedbackMemoryLimit(),
			Logger:      log,
		})
	}

	interpretService := &interpret.Service{
		ConfigProvider:  cfgLoader,
		Parser:          intentParser,
		Knowledge:       kb,
		SecurityService: guardrail,
		Executor:        executor.NewLocalExecutor(log),
		Logger:          log,
	}
	if recorder != nil {
		interpretService.Feedback = recorder
	}

	learningService := &learning.Service{
		Knowledge: kb,
		Aliases:   aliases,
		Logger:    log,
		Threshold: cfg.GetPromotionThreshold(),
	}
	if recorder != nil {
		learningService.Feedback = recorder
	}

	doctorService := &doctor.Service{
		ConfigProvider:  cfgLoader,
		SecurityService: guardrail,
		Knowledge:       kb,
		ValidateRules:   security.ValidateRulesFile,
		LookPath:        exec.LookPath,
	}
	if recorder != nil {
		doctorService.Feedback = recorder
	}

	return &Container{
		Config:           cfg,
		ConfigLoader:     cfgLoader,
		Logger:           log,
		Knowledge:        kb,
		Guardrail:        guardrail,
		Parser:           intentParser,
		Recorder:         recorder,
		InterpretService: interpretService,
		LearningService:  learningService,
		DoctorService:    doctorService,
		db:               db,
	}, nil
}

// NewSession starts a follow-up context sized by the loaded config.
func (c *Container) NewSession(id string) *domain.Session {
	return domain.NewSession(id, c.Config.GetSessionMaxTurns(), c.Config.GetSessionTTL())
}

// Close drains pending feedback and releases the database.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error
	if c.Recorder != nil {
		if err := c.Recorder.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = c.Logger.Sync()
	return firstErr
}
