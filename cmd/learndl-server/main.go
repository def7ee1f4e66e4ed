package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"learndl/lib/configutil"
	"learndl/lib/serviceutil"
	"learndl/lib/telemetry"
	"learndl/services/downloader"
	"learndl/services/jobs"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
)

type Config struct {
	Port int `json:"port"`
}

type downloadRequest struct {
	Uid       string   `json:"uid"`
	Url       string   `json:"url"`
	Kind      string   `json:"kind"`
	Formats   []string `json:"formats"`
	OutputDir string   `json:"output_dir"`
}

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "learndl-server")
	telemetry.InitSlog(false)

	serverConfig, err := configutil.ReadConfig[Config]("server.json5")
	if err != nil {
		serverConfig = Config{}
	}
	if serverConfig.Port == 0 {
		serverConfig.Port = 8080
	}

	config, err := downloader.LoadConfig("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	var cache *badger.DB
	if config.Storage.CacheDir != "" {
		cache, err = badger.Open(badger.DefaultOptions(config.Storage.CacheDir))
		if err != nil {
			serviceutil.Fatal("failed to open page cache", err)
		}
		defer cache.Close()
	}

	store := jobs.NewStore()

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/downloads", func(c *gin.Context) {
		var req downloadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Uid == "" && req.Url == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "either uid or url is required"})
			return
		}

		formats, err := parseFormats(req.Formats)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		job := store.Create(req.Uid + req.Url)
		go runJob(config, cache, store, job.Id, req.Kind, downloader.Request{
			Uid:       req.Uid,
			Url:       req.Url,
			OutputDir: req.OutputDir,
			Formats:   formats,
		})
		c.JSON(http.StatusAccepted, job)
	})
	api.GET("/downloads", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.List())
	})
	api.GET("/downloads/:id", func(c *gin.Context) {
		job, ok := store.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such job"})
			return
		}
		c.JSON(http.StatusOK, job)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", serverConfig.Port),
		Handler: router,
	}
	go func() {
		slog.Info("listening", "port", serverConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceutil.Fatal("server failed", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}

// runJob drives one download in the background, feeding the job store.
// Each job gets its own downloader so progress callbacks never cross.
func runJob(config downloader.Config, cache *badger.DB, store *jobs.Store, jobId, kind string, req downloader.Request) {
	d := downloader.New(config, cache)
	d.OnProgress = store.Progress(jobId)
	store.SetRunning(jobId)

	ctx := context.Background()
	var result *downloader.Result
	var err error
	switch kind {
	case "", "path":
		result, err = d.DownloadLearningPath(ctx, req)
	case "module":
		result, err = d.DownloadModule(ctx, req)
	case "course":
		var courseResult *downloader.CourseResult
		courseResult, err = d.DownloadCourse(ctx, req)
		if err == nil {
			result = courseResult.Flatten()
		}
	default:
		err = fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		slog.Error("job failed", "id", jobId, "err", err)
		store.Fail(jobId, err)
		return
	}
	store.Complete(jobId, result.Files)
}

func parseFormats(values []string) ([]downloader.Format, error) {
	var formats []downloader.Format
	for _, value := range values {
		switch value {
		case "html":
			formats = append(formats, downloader.FormatHtml)
		case "markdown", "md":
			formats = append(formats, downloader.FormatMarkdown)
		default:
			return nil, fmt.Errorf("unknown format %q", value)
		}
	}
	return formats, nil
}
