package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"learndl/lib/scrapers/mslearn/catalog"
	"learndl/lib/serviceutil"
	"learndl/services/downloader"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"
)

var (
	downloadUid          *string
	downloadUrl          *string
	downloadKind         *string
	downloadFormat       *string
	downloadOutput       *string
	downloadNoImages     *bool
	downloadDeleteImages *bool
	downloadAll          *bool
)

func init() {
	downloadUid = downloadCmd.Flags().String("uid", "", "The catalog uid of the item to download.")
	downloadUrl = downloadCmd.Flags().String("url", "", "The learn url of the item to download.")
	downloadKind = downloadCmd.Flags().String("kind", "path", "What the uid names: path, course or module.")
	downloadFormat = downloadCmd.Flags().String("format", "all", "Output formats: html, markdown or all.")
	downloadOutput = downloadCmd.Flags().String("output", "", "Output directory, overrides storage.output_dir.")
	downloadNoImages = downloadCmd.Flags().Bool("no-images", false, "Skip downloading images.")
	downloadDeleteImages = downloadCmd.Flags().Bool("delete-images", false, "Remove the images directory after rendering.")
	downloadAll = downloadCmd.Flags().Bool("all", false, "Download every search result of the query argument.")
	rootCmd.AddCommand(downloadCmd)
}

func parseFormats(value string) ([]downloader.Format, error) {
	if value == "" || value == "all" {
		return nil, nil
	}
	var formats []downloader.Format
	for _, part := range strings.Split(value, ",") {
		switch strings.TrimSpace(part) {
		case "html":
			formats = append(formats, downloader.FormatHtml)
		case "markdown", "md":
			formats = append(formats, downloader.FormatMarkdown)
		default:
			return nil, fmt.Errorf("unknown format %q", part)
		}
	}
	return formats, nil
}

// openCache opens the badger page cache when one is configured.
func openCache(config downloader.Config) *badger.DB {
	if config.Storage.CacheDir == "" {
		return nil
	}
	db, err := badger.Open(badger.DefaultOptions(config.Storage.CacheDir))
	if err != nil {
		slog.Warn("failed to open page cache, continuing without", "dir", config.Storage.CacheDir, "err", err)
		return nil
	}
	return db
}

func downloadOne(ctx context.Context, d *downloader.Downloader, kind string, req downloader.Request) (*downloader.Result, error) {
	switch kind {
	case "path":
		return d.DownloadLearningPath(ctx, req)
	case "module":
		return d.DownloadModule(ctx, req)
	case "course":
		courseResult, err := d.DownloadCourse(ctx, req)
		if err != nil {
			return nil, err
		}
		return courseResult.Flatten(), nil
	}
	return nil, fmt.Errorf("unknown --kind %q, expected path, course or module", kind)
}

var downloadCmd = &cobra.Command{
	Use:   "download [--uid <uid> | --url <url> | <query> --all]",
	Short: "Downloads a learning path, course or module into local documents.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := downloader.LoadConfig("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *downloadNoImages {
			config.Download.Images = false
		}
		if *downloadDeleteImages {
			config.Cleanup.DeleteImages = true
		}

		formats, err := parseFormats(*downloadFormat)
		if err != nil {
			serviceutil.Fatal("invalid --format", err)
		}

		cache := openCache(config)
		if cache != nil {
			defer cache.Close()
		}
		d := downloader.New(config, cache)

		if len(args) == 1 && *downloadAll {
			downloadSearchResults(cmd.Context(), d, args[0], *downloadKind, formats)
			return
		}
		if *downloadUid == "" && *downloadUrl == "" {
			serviceutil.Fatal("nothing to download", fmt.Errorf("provide --uid, --url or a query with --all"))
		}

		result, err := downloadOne(cmd.Context(), d, *downloadKind, downloader.Request{
			Uid:       *downloadUid,
			Url:       *downloadUrl,
			OutputDir: *downloadOutput,
			Formats:   formats,
		})
		if err != nil {
			serviceutil.Fatal("download failed", err)
		}
		printResult(result)
	},
}

// downloadSearchResults downloads every search hit of the requested
// kind, isolating per-item failures and reporting a final tally.
func downloadSearchResults(ctx context.Context, d *downloader.Downloader, query, kind string, formats []downloader.Format) {
	var types []catalog.EntityType
	switch kind {
	case "path":
		types = []catalog.EntityType{catalog.TypeLearningPaths}
	case "course":
		types = []catalog.EntityType{catalog.TypeCourses}
	default:
		serviceutil.Fatal("batch download", fmt.Errorf("--all supports --kind path or course, got %q", kind))
	}

	results, err := d.Catalog.Search(ctx, query, types)
	if err != nil {
		serviceutil.Fatal("search failed", err)
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}

	done := 0
	for i, entity := range results {
		fmt.Printf("[%d/%d] %s\n", i+1, len(results), entity.Title)
		result, err := downloadOne(ctx, d, kind, downloader.Request{
			Uid:       entity.Uid,
			OutputDir: *downloadOutput,
			Formats:   formats,
		})
		if err != nil {
			slog.Error("item failed", "uid", entity.Uid, "err", err)
			continue
		}
		done++
		printResult(result)
	}
	fmt.Printf("downloaded %d/%d items\n", done, len(results))
}

func printResult(result *downloader.Result) {
	fmt.Printf("%s: %d/%d modules, %d/%d units\n",
		result.Item.Uid,
		result.ModulesDone, result.ModulesRequested,
		result.UnitsDone, result.UnitsRequested)
	for _, file := range result.Files {
		fmt.Printf("  wrote %s\n", file)
	}
}
