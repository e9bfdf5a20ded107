package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docmock/internal/chunker"
	"github.com/dgallion1/docmock/internal/config"
	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/extract"
	"github.com/dgallion1/docmock/internal/parser"
	"github.com/dgallion1/docmock/internal/pipeline"
	"github.com/dgallion1/docmock/internal/store"
)

type chunkOptions struct {
	fullAI   bool
	showText bool
	dumpDir  string
}

func newChunkCommand(cfg config.Config) *cobra.Command {
	var opts chunkOptions
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Show the chunks (or full-document windows) a file is split into, without calling an LLM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.fullAI, "full-ai", false, "split into whole-document windows instead of operation chunks")
	cmd.Flags().BoolVar(&opts.showText, "text", false, "print the text of every chunk")
	cmd.Flags().StringVar(&opts.dumpDir, "dump", "", "write every chunk to its own file in this directory")
	return cmd
}

func runChunk(out io.Writer, cfg config.Config, path string, opts chunkOptions) error {
	rules, _, err := cfg.Rules()
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := parser.Parse(f, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if opts.fullAI {
		windows := chunker.Windows(chunker.Document(doc.Sections, rules), cfg.FullAIWindowTokens, cfg.FullAIWindowOverlap)
		fmt.Fprintln(tw, "#\tTOKENS")
		for i, w := range windows {
			fmt.Fprintf(tw, "%d\t%d\n", i+1, chunker.EstimateTokens(w))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if opts.showText {
			for i, w := range windows {
				fmt.Fprintf(out, "\n--- window %d ---\n%s\n", i+1, w)
			}
		}
		if opts.dumpDir != "" {
			titles := make([]string, len(windows))
			for i := range windows {
				titles[i] = "window"
			}
			return dumpChunks(out, opts.dumpDir, titles, windows)
		}
		return nil
	}

	chunks := chunker.Chunk(doc.Sections, rules)
	fmt.Fprintln(tw, "#\tTITLE\tTABLES\tTOKENS\tPATH")
	for i, c := range chunks {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", i+1, c.Title, c.TableCount,
			chunker.EstimateTokens(c.Text), extract.ExtractAPIPath(c.Text, rules))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if opts.showText {
		for i, c := range chunks {
			fmt.Fprintf(out, "\n--- chunk %d: %s ---\n%s\n", i+1, c.Title, c.Text)
		}
	}
	fmt.Fprintf(out, "%d sections, %d chunks\n", len(doc.Sections), len(chunks))
	if opts.dumpDir != "" {
		titles := make([]string, len(chunks))
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			titles[i], texts[i] = c.Title, c.Text
		}
		return dumpChunks(out, opts.dumpDir, titles, texts)
	}
	return nil
}

// dumpChunks writes texts[i] to dir/NN-<slug of titles[i]>.txt.
func dumpChunks(out io.Writer, dir string, titles, texts []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, text := range texts {
		name := slug.Make(titles[i])
		if name == "" {
			name = "chunk"
		}
		file := filepath.Join(dir, fmt.Sprintf("%02d-%s.txt", i+1, name))
		if err := os.WriteFile(file, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	fmt.Fprintf(out, "wrote %d files to %s\n", len(texts), dir)
	return nil
}

func newIngestCommand(cfgFn func() config.Config, logger func() *slog.Logger) *cobra.Command {
	var (
		sceneID string
		fullAI  bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Extract mock endpoints from a file into the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), cfgFn(), logger(), args[0], sceneID, fullAI)
		},
	}
	cmd.Flags().StringVar(&sceneID, "scene", "", "scene id (default scene when empty)")
	cmd.Flags().BoolVar(&fullAI, "full-ai", false, "extract from the whole document instead of per operation")
	return cmd
}

func runIngest(ctx context.Context, out io.Writer, cfg config.Config, log *slog.Logger, path, sceneID string, fullAI bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rules, _, err := cfg.Rules()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := filepath.Base(path)
	if !parser.IsSupportedExtension(name) {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(name))
	}

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var scene *store.Scene
	if sceneID == "" {
		scene, err = st.EnsureDefaultScene(ctx)
	} else {
		scene, err = st.GetScene(ctx, sceneID)
	}
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	key, model := cfg.ProviderKey()
	client, err := extract.New(ctx, extract.Provider{Name: cfg.LLMProvider, APIKey: key, Model: model, BaseURL: cfg.OpenAIBaseURL})
	if err != nil {
		return err
	}
	llm := pipeline.Retrying{Client: client, Log: log}
	worker := pipeline.NewWorker(extract.NewExtractor(llm, log), st, log, rules,
		pipeline.WindowConfig{Tokens: cfg.FullAIWindowTokens, Overlap: cfg.FullAIWindowOverlap},
		cfg.MaxConcurrentExtract)

	job := pipeline.NewJob(endpoint.NewID(), name, data)
	job.SceneID = scene.ID
	job.SceneName = scene.Name
	job.FullAI = fullAI
	if err := st.SaveUploadedFile(ctx, job.Record()); err != nil {
		return err
	}
	worker.Process(ctx, job)

	snap := job.Snapshot()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return err
	}
	if snap.Status == store.StatusFailed {
		return fmt.Errorf("ingest %s failed: %s", name, strings.Join(snap.Progress.Errors, "; "))
	}
	return nil
}

func newEndpointsCommand(cfgFn func() config.Config) *cobra.Command {
	var sceneID string
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List stored mock endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := store.NewSQLiteStore(cfgFn().DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			var defs []*endpoint.Definition
			if sceneID != "" {
				defs, err = st.ListDefinitionsByScene(ctx, sceneID)
			} else {
				defs, err = st.ListDefinitions(ctx)
			}
			if err != nil {
				return err
			}
			return printEndpoints(cmd.OutOrStdout(), defs)
		},
	}
	cmd.Flags().StringVar(&sceneID, "scene", "", "only list endpoints of this scene")
	return cmd
}

func printEndpoints(out io.Writer, defs []*endpoint.Definition) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMETHOD\tMOCK URL\tTITLE\tSCENE\tSOURCE")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Method, d.MockURL, d.Title, d.SceneName, d.SourceFileName)
	}
	return tw.Flush()
}
