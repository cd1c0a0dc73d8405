package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cv-builder/internal/config"
	"cv-builder/internal/model"
	"cv-builder/internal/render"
	"cv-builder/internal/usecase"
	infra "cv-builder/pkg/infrastructure"
	"cv-builder/pkg/logger"

	"github.com/spf13/cobra"
)

var renderOpts struct {
	in       string
	out      string
	template string
	pdf      bool
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a CV JSON file to HTML or PDF",
	Example: `  cv-builder render --in cv.json --template classic --out cv.html
  cv-builder render --in cv.json --out cv.pdf --pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logger.Init(cfg.IsProduction())

		raw, err := os.ReadFile(renderOpts.in)
		if err != nil {
			return fmt.Errorf("read %s: %w", renderOpts.in, err)
		}
		if errs := model.ValidateJSON(raw); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return fmt.Errorf("%s: %d validation errors", renderOpts.in, len(errs))
		}
		doc, err := model.DecodeDocument(raw)
		if err != nil {
			return err
		}
		doc = model.Sanitize(doc)

		engine, err := render.NewEngine(cfg.TemplatesDir, log)
		if err != nil {
			return err
		}
		var renderer usecase.Renderer
		if renderOpts.pdf {
			renderer = infra.NewChromedpRenderer(cfg.ChromePath)
		}
		exporter := usecase.NewExporter(engine, renderer, nil, cfg.PDFRenderAttempts, log)

		var out []byte
		if renderOpts.pdf {
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
			defer cancel()
			out, err = exporter.PDF(ctx, doc, renderOpts.template)
		} else {
			var html string
			html, err = exporter.HTML(doc, renderOpts.template)
			out = []byte(html)
		}
		if err != nil {
			return err
		}

		if err := os.WriteFile(renderOpts.out, out, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", renderOpts.out, len(out))
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.in, "in", "cv.json", "CV document to render")
	f.StringVar(&renderOpts.out, "out", "cv.html", "output file")
	f.StringVar(&renderOpts.template, "template", "", "template name (defaults to the document's template)")
	f.BoolVar(&renderOpts.pdf, "pdf", false, "print to PDF with headless Chrome")
}
