package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/agent"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/config"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/extraction"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/gmailclient"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/ingestion"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/llm"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/storage"
)

// pipeline is the agent with the connections it depends on
type pipeline struct {
	agent   *agent.CVRankingAgent
	closers []func() error
	logger  *zap.Logger
}

func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			p.logger.Warn("closing a dependency", zap.Error(err))
		}
	}
}

// newPipeline wires text extraction, field extraction and the optional cache and archive
func newPipeline(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pipeline, error) {
	p := &pipeline{logger: log}

	textOpts := []ingestion.Option{ingestion.WithLogger(log)}
	if cfg.Redis.Enabled {
		password, err := cfg.RedisPassword()
		if err != nil {
			return nil, err
		}
		cache, err := storage.NewRedis(ctx, cfg.Redis, password)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, cache.Close)
		textOpts = append(textOpts, ingestion.WithCache(cache))
		log.Info("text cache enabled", zap.String("address", cfg.Redis.Address))
	}

	text := ingestion.NewExtractor(
		ingestion.NewTesseractEngine(cfg.OCR.Tesseract, cfg.OCR.Language),
		ingestion.NewPopplerRasterizer(cfg.OCR.Pdftoppm),
		textOpts...,
	)

	recognizer, err := newRecognizer(ctx, cfg.NER, log)
	if err != nil {
		p.Close()
		return nil, err
	}
	if c, ok := recognizer.(interface{ Close() error }); ok {
		p.closers = append(p.closers, c.Close)
	}
	fields := extraction.New(recognizer, extraction.WithLogger(log))

	agentOpts := []agent.Option{
		agent.WithWorkers(cfg.Workers),
		agent.WithLogger(log),
	}
	if cfg.MinIO.Enabled {
		secret, err := cfg.MinIOSecret()
		if err != nil {
			p.Close()
			return nil, err
		}
		archive, err := storage.NewArchive(ctx, cfg.MinIO, secret)
		if err != nil {
			p.Close()
			return nil, err
		}
		agentOpts = append(agentOpts, agent.WithArchive(archive))
		log.Info("document archive enabled", zap.String("bucket", cfg.MinIO.Bucket))
	}

	p.agent = agent.NewCVRankingAgent(ingestion.NewFileHandler(cfg.UploadsDir), text, fields, agentOpts...)
	return p, nil
}

func newRecognizer(ctx context.Context, cfg config.NERConfig, log *zap.Logger) (extraction.EntityRecognizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "none":
		return nil, nil
	case "vertexai":
		client, err := llm.NewVertexAIClient(ctx, cfg.Vertex.Project, cfg.Vertex.Location, cfg.Vertex.Model)
		if err != nil {
			return nil, err
		}
		log.Info("using vertex ai for names", zap.String("model", cfg.Vertex.Model))
		return client, nil
	case "", "prose":
		return extraction.NewProseRecognizer(), nil
	default:
		return nil, fmt.Errorf("unsupported ner provider: %s", cfg.Provider)
	}
}

// newGmailSource opens the mailbox used to fetch CV attachments
func newGmailSource(ctx context.Context, cfg config.GmailConfig, log *zap.Logger) (*ingestion.GmailHandler, error) {
	return ingestion.NewGmailHandler(ctx, gmailclient.Options{
		CredentialsFile: cfg.CredentialsFile,
		TokenFile:       cfg.TokenFile,
		Prompt:          gmailclient.StdinPrompt(os.Stdout, os.Stdin),
	}, log)
}
