// Package httpserver exposes the processing pipeline over HTTP: upload
// workbooks, get a run summary back, download the rendered report.
package httpserver

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/aggregate"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/report"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/resolve"
)

// reportTTL bounds how long a rendered report stays downloadable.
const reportTTL = time.Hour

// maxUploadBytes caps one uploaded workbook.
const maxUploadBytes = 32 << 20

// Server holds the processor and the rendered reports of recent runs.
type Server struct {
	proc *ctr.Processor
	log  *slog.Logger

	mu      sync.Mutex
	reports map[string]cachedReport
}

type cachedReport struct {
	data      []byte
	createdAt time.Time
}

// New creates a server around an already-wired processor.
func New(proc *ctr.Processor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		proc:    proc,
		log:     log,
		reports: make(map[string]cachedReport),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	api := router.Group("/api")
	{
		api.POST("/process", s.handleProcess)
		api.GET("/report/:id", s.handleReport)
	}
	return router
}

type companyJSON struct {
	Company     string   `json:"company"`
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	CTR         *float64 `json:"ctr"`
}

type monthlyJSON struct {
	File        string `json:"file"`
	Company     string `json:"company"`
	Impressions int64  `json:"impressions"`
	Clicks      int64  `json:"clicks"`
}

type runJSON struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Rows        int                    `json:"rows"`
	Companies   []companyJSON          `json:"companies"`
	Totals      companyJSON            `json:"totals"`
	Monthly     []monthlyJSON          `json:"monthly"`
	Resolved    map[resolve.Source]int `json:"resolved"`
	Warnings    []string               `json:"warnings,omitempty"`
	ReportURL   string                 `json:"report_url"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleProcess accepts one or more xlsx uploads under the "files"
// multipart field, runs the pipeline and caches the rendered report for
// download.
func (s *Server) handleProcess(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("parse multipart form: %v", err)})
		return
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded, use the 'files' field"})
		return
	}

	inputs := make([]ctr.Input, 0, len(uploads))
	closers := make([]func() error, 0, len(uploads))
	defer func() {
		for _, close := range closers {
			close()
		}
	}()

	for _, upload := range uploads {
		if !strings.EqualFold(filepath.Ext(upload.Filename), ".xlsx") {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: only .xlsx files are accepted", upload.Filename)})
			return
		}
		if upload.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("%s: exceeds %d byte limit", upload.Filename, maxUploadBytes)})
			return
		}
		src, err := upload.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("open %s: %v", upload.Filename, err)})
			return
		}
		closers = append(closers, src.Close)
		inputs = append(inputs, ctr.Input{Name: filepath.Base(upload.Filename), Src: src})
	}

	result, err := s.proc.ProcessReaders(c.Request.Context(), inputs)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteTo(&buf, result.Companies, result.Monthly); err != nil {
		s.log.Error("report render failed", "run_id", result.RunID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render report"})
		return
	}
	s.cacheReport(result.RunID, buf.Bytes())

	c.JSON(http.StatusOK, runToJSON(result))
}

// handleReport serves a previously rendered workbook by run ID.
func (s *Server) handleReport(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	cached, ok := s.reports[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or expired run id"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ctr-report-%s.xlsx"`, id))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		cached.data)
}

func (s *Server) cacheReport(id string, data []byte) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, cached := range s.reports {
		if now.Sub(cached.createdAt) > reportTTL {
			delete(s.reports, key)
		}
	}
	s.reports[id] = cachedReport{data: data, createdAt: now}
}

func runToJSON(result *ctr.RunResult) runJSON {
	out := runJSON{
		RunID:       result.RunID,
		GeneratedAt: result.GeneratedAt,
		Rows:        result.Rows,
		Totals:      companyToJSON(result.Totals),
		Resolved:    result.Resolved,
		Warnings:    result.Warnings,
		ReportURL:   "/api/report/" + result.RunID,
	}
	for _, st := range result.Companies {
		out.Companies = append(out.Companies, companyToJSON(st))
	}
	for _, m := range result.Monthly {
		out.Monthly = append(out.Monthly, monthlyJSON{
			File:        m.File,
			Company:     m.Company,
			Impressions: m.Impressions,
			Clicks:      m.Clicks,
		})
	}
	return out
}

// companyToJSON keeps undefined CTR as null rather than zero.
func companyToJSON(st aggregate.CompanyStat) companyJSON {
	out := companyJSON{
		Company:     st.Company,
		Impressions: st.Impressions,
		Clicks:      st.Clicks,
	}
	if st.CTRValid {
		v := st.CTR
		out.CTR = &v
	}
	return out
}
