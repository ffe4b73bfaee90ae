// Package main 知识库导入工具：读取经文数据文件写入向量索引，并提供统计与重置
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"monk-ai-api/internal/application/knowledge"
	"monk-ai-api/internal/application/retrieval"
	"monk-ai-api/internal/config"
	"monk-ai-api/internal/wire"
	"monk-ai-api/pkg/logger"
)

var (
	version = "dev"

	verbose bool
	dataDir string
	restart bool
	confirm bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "kb-loader",
	Short:         "Load Hindu scripture data into the vector index",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Read .jsonl, .csv and .txt files and add them to the index",
	Long: `Read every .jsonl, .csv and .txt file in the data directory, split the
text into passages and add them to the vector index in batches.

An interrupted run resumes from the last completed batch. Use --restart
to ignore the checkpoint, for example after the dataset changed.

Examples:
  kb-loader load --data-dir ./data
  kb-loader load --restart`,
	RunE: runLoad,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print collection name, row count and model names",
	RunE:  runStats,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the collection and its ingestion checkpoint",
	RunE:  runReset,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	loadCmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory containing scripture data files")
	loadCmd.Flags().BoolVar(&restart, "restart", false, "ignore the saved checkpoint and start from the first batch")

	resetCmd.Flags().BoolVar(&confirm, "yes", false, "confirm dropping the collection")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
}

type runtime struct {
	cfg     *config.Config
	loader  *knowledge.Loader
	cleanup func()
}

func setup(ctx context.Context) (*runtime, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Observability.Logging.Level
	if verbose {
		level = "debug"
	}
	logger.InitWithWriter(os.Stderr, level, cfg.Observability.Logging.Format)

	deps, cleanup, err := wire.InitializeLoader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize loader: %w", err)
	}

	splitter, err := retrieval.NewSplitter(ctx, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		cleanup()
		return nil, err
	}
	loader := knowledge.NewLoader(deps.Index, deps.Checkpoints, splitter, cfg.RAG.Collection)
	return &runtime{cfg: cfg, loader: loader, cleanup: cleanup}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	res, err := rt.loader.LoadDir(ctx, dataDir, restart)
	if res != nil {
		logger.Info(ctx, "ingestion finished",
			"files", res.Files,
			"documents", res.Documents,
			"passages", res.Passages,
			"batches", res.Batches,
			"resumed_from", res.ResumeFrom,
			"stale_checkpoint", res.StaleCheckpoint,
		)
	}
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	return printStats(ctx, cmd, rt)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	return printStats(ctx, cmd, rt)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !confirm {
		return fmt.Errorf("refusing to drop the collection without --yes")
	}
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if err := rt.loader.Reset(ctx); err != nil {
		return fmt.Errorf("reset knowledge base: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "collection %s dropped\n", rt.cfg.RAG.Collection)
	return nil
}

func printStats(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
	n, err := rt.loader.Count(ctx)
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	info := wire.KnowledgeInfo(rt.cfg)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "collection_name: %s\n", info.Collection)
	fmt.Fprintf(out, "total_documents: %d\n", n)
	fmt.Fprintf(out, "embedding_model: %s\n", info.EmbeddingModel)
	fmt.Fprintf(out, "reranker_model:  %s\n", info.RerankerModel)
	return nil
}
