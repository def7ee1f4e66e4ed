package commands

import (
	"fmt"
	"os"

	"learndl/lib/scrapers/mslearn/catalog"
	"learndl/lib/serviceutil"
	"learndl/services/downloader"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchType *string

func init() {
	searchType = searchCmd.Flags().String("type", "", "Restrict results to one kind: paths or courses.")
	rootCmd.AddCommand(searchCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func catalogClient(config downloader.Config) *catalog.Client {
	return catalog.NewClient(catalog.ClientOptions{
		BaseUrl:       config.Api.BaseUrl,
		Locale:        config.Api.Locale,
		Timeout:       config.Api.TimeoutDuration(),
		RetryAttempts: config.Api.RetryAttempts,
		RetryDelay:    config.Api.RetryDelayDuration(),
	})
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches the catalog for learning paths and courses.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := downloader.LoadConfig("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		var types []catalog.EntityType
		switch *searchType {
		case "":
		case "paths":
			types = []catalog.EntityType{catalog.TypeLearningPaths}
		case "courses":
			types = []catalog.EntityType{catalog.TypeCourses}
		default:
			serviceutil.Fatal("unknown --type", fmt.Errorf("%q is not paths or courses", *searchType))
		}

		results, err := catalogClient(config).Search(cmd.Context(), args[0], types)
		if err != nil {
			serviceutil.Fatal("search failed", err)
		}
		if len(results) == 0 {
			fmt.Println("no results")
			return
		}

		t := newTable()
		t.AppendHeader(table.Row{"Uid", "Title", "Course #", "Minutes"})
		for _, e := range results {
			t.AppendRow(table.Row{e.Uid, e.Title, e.CourseNumber, e.DurationInMinutes})
		}
		t.Render()
	},
}
