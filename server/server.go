package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/moxying/mox/client"
	"github.com/moxying/mox/config"
	"github.com/moxying/mox/db"
	"github.com/moxying/mox/eventbus"
	"github.com/moxying/mox/logging"
	"github.com/moxying/mox/metrics"
	"github.com/moxying/mox/model"
	"github.com/moxying/mox/storage"
	"github.com/moxying/mox/worker"
)

//go:embed prompts.json
var promptExamplesJSON []byte

// Server Agent 的 HTTP/WS 对外层。
// 只做入队与查询：生成请求落库入队后立即返回，绝不阻塞在生成上。
type Server struct {
	cfg     config.Config
	store   *db.Store
	blobs   *storage.FileStore
	wrk     *worker.GenImageWorker
	engine  client.EngineAPI
	connMgr *WSConnMgr

	prompts []map[string]string
	srv     *http.Server
}

// New 构造 Server，并把出站通道挂到总线的 ws 主题上。
func New(cfg config.Config, store *db.Store, blobs *storage.FileStore, wrk *worker.GenImageWorker, engine client.EngineAPI, bus *eventbus.Bus) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		blobs:   blobs,
		wrk:     wrk,
		engine:  engine,
		connMgr: NewWSConnMgr(),
	}
	_ = json.Unmarshal(promptExamplesJSON, &s.prompts)
	bus.Subscribe(model.EventTypeWS, func(payload any) {
		if ev, ok := payload.(model.WSEvent); ok {
			s.connMgr.Enqueue(ev)
		}
	})
	return s
}

// ConnMgr 暴露前端通道管理器（发送循环由 cmd 侧启动）。
func (s *Server) ConnMgr() *WSConnMgr { return s.connMgr }

// Run 启动 HTTP 服务，ctx 结束时优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.registerHandlers(mux)

	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	s.srv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
	logging.L().Info(ctx, "API Server start", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWS)

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/config", s.handleUpdateConfig)
	mux.HandleFunc("GET /api/system", s.handleSystem)

	mux.HandleFunc("POST /api/image/create", s.handleGenImage)
	mux.HandleFunc("GET /api/image/result", s.handleTaskResult)
	mux.HandleFunc("POST /api/image/list", s.handleImageList)
	mux.HandleFunc("POST /api/image/list/fragment", s.handleImageListFragment)
	mux.HandleFunc("DELETE /api/image/{uuid}", s.handleDeleteImage)
	mux.HandleFunc("GET /api/image/prompt/random", s.handleRandomPrompt)

	mux.HandleFunc("GET /api/file/output/{filename}", s.handleOutputFile)
}

// handleGenImage 创建生成任务：先落 doing 记录，再入队，立即返回任务ID。
func (s *Server) handleGenImage(rw http.ResponseWriter, r *http.Request) {
	var req GenImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(rw, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeErr(rw, http.StatusBadRequest, fmt.Errorf("prompt is empty"))
		return
	}
	task := worker.GenImageTask{
		TaskType:       worker.TaskTypeTxt2Img,
		OriginPrompt:   req.Prompt,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		CkptName:       req.CkptName,
		Seed:           req.Seed,
		Steps:          req.Steps,
		Cfg:            req.Cfg,
		SamplerName:    req.SamplerName,
		Scheduler:      req.Scheduler,
		Denoise:        req.Denoise,
		BatchSize:      req.BatchSize,
		Width:          req.Width,
		Height:         req.Height,
	}
	// 先补齐默认参数再落库，任务记录反映实际提交引擎的参数
	task.FillDefaults()
	row := &db.GenImageTaskDB{
		TaskType:       db.TaskTypeTxt2Img,
		OriginPrompt:   task.OriginPrompt,
		Prompt:         task.Prompt,
		NegativePrompt: task.NegativePrompt,
		BatchSize:      task.BatchSize,
		Width:          task.Width,
		Height:         task.Height,
		Seed:           task.Seed,
		Steps:          task.Steps,
		Cfg:            task.Cfg,
		SamplerName:    task.SamplerName,
		Scheduler:      task.Scheduler,
		Denoise:        task.Denoise,
		CkptName:       task.CkptName,
	}
	taskID, err := s.store.CreateTask(r.Context(), row)
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	task.TaskID = taskID
	if err := s.wrk.AddTask(task); err != nil {
		_ = s.store.SetTaskStatus(r.Context(), taskID, db.TaskStatusFailed, err.Error())
		writeErr(rw, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(rw, CommonResponse{Data: GenImageResponseData{TaskID: taskID}})
}

// handleTaskResult 查询任务状态与结果图。
func (s *Server) handleTaskResult(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("task_id"), 10, 64)
	if err != nil {
		writeErr(rw, http.StatusBadRequest, fmt.Errorf("bad task_id"))
		return
	}
	task, err := s.store.GetTask(r.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeErr(rw, http.StatusNotFound, fmt.Errorf("task not found"))
		return
	}
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	images, err := s.store.ListTaskImages(r.Context(), task.ID)
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	writeJSON(rw, CommonResponse{Data: TaskResultResponseData{
		TaskID:     task.ID,
		TaskStatus: task.TaskStatus,
		ErrMsg:     task.ErrMsg,
		Images:     toSDImages(images),
	}})
}

// handleImageList 分页列出结果图。
func (s *Server) handleImageList(rw http.ResponseWriter, r *http.Request) {
	var req GetImageListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(rw, http.StatusBadRequest, err)
		return
	}
	list, total, err := s.store.ListImages(r.Context(), req.Page, req.PageSize, 0)
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	writeJSON(rw, CommonResponse{Data: GetImageListResponseData{
		Page: req.Page, PageSize: req.PageSize, Total: total, List: toSDImages(list),
	}})
}

// handleImageListFragment 按创建日期分组的分页列表（今天/昨天/具体日期）。
func (s *Server) handleImageListFragment(rw http.ResponseWriter, r *http.Request) {
	var req GetImageListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(rw, http.StatusBadRequest, err)
		return
	}
	list, total, err := s.store.ListImages(r.Context(), req.Page, req.PageSize, req.TimestampFilter)
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	images := toSDImages(list)
	writeJSON(rw, CommonResponse{Data: GetImageListAsFragmentResponseData{
		Page: req.Page, PageSize: req.PageSize, Total: total, CurTotal: len(images),
		List: groupByDate(images, time.Now()),
	}})
}

// groupByDate 保持列表原有倒序，把相邻同日期的图片聚为一段。
func groupByDate(images []SDImage, now time.Time) []SDImageFragment {
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	var fragments []SDImageFragment
	for _, img := range images {
		day := img.CreatedAt.Format("2006-01-02")
		var label string
		switch day {
		case today:
			label = "今天"
		case yesterday:
			label = "昨天"
		default:
			label = img.CreatedAt.Format("2006年01月02日")
		}
		if n := len(fragments); n > 0 && fragments[n-1].Date == label {
			fragments[n-1].List = append(fragments[n-1].List, img)
			continue
		}
		fragments = append(fragments, SDImageFragment{Date: label, List: []SDImage{img}})
	}
	return fragments
}

// handleDeleteImage 删除一张结果图：先删记录再删落盘文件。
func (s *Server) handleDeleteImage(rw http.ResponseWriter, r *http.Request) {
	uuid := r.PathValue("uuid")
	img, err := s.store.GetImage(r.Context(), uuid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSON(rw, CommonResponse{Data: "delete done"})
		return
	}
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.DeleteImage(r.Context(), uuid); err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	_ = s.blobs.Delete(img.Name)
	writeJSON(rw, CommonResponse{Data: "delete done"})
}

// handleOutputFile 返回落盘的结果图字节。
func (s *Server) handleOutputFile(rw http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		writeErr(rw, http.StatusBadRequest, fmt.Errorf("bad filename"))
		return
	}
	rw.Header().Set("Content-Type", "image/png")
	http.ServeFile(rw, r, s.blobs.Path(filename))
}

// handleGetConfig 返回当前配置。
func (s *Server) handleGetConfig(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, CommonResponse{Data: s.cfg})
}

// handleUpdateConfig 配置热更新暂未支持，保持与前端的协议回执。
func (s *Server) handleUpdateConfig(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, CommonResponse{Data: "done"})
}

// handleSystem 返回本机系统指标与引擎侧信息快照。引擎不可达时引擎段留空。
func (s *Server) handleSystem(rw http.ResponseWriter, r *http.Request) {
	data := SystemResponseData{Metric: metrics.CollectSystemMetric(r.Context())}
	if stats, err := s.engine.SystemStats(r.Context()); err == nil {
		data.Engine = &stats
	} else {
		logging.L().Warn(r.Context(), "query engine system stats failed", "err", err)
	}
	writeJSON(rw, CommonResponse{Data: data})
}

// handleRandomPrompt 返回一条随机示例提示词，lang 默认 zh-cn。
func (s *Server) handleRandomPrompt(rw http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = "zh-cn"
	}
	if len(s.prompts) == 0 {
		writeErr(rw, http.StatusInternalServerError, fmt.Errorf("no prompt examples"))
		return
	}
	example := s.prompts[rand.Intn(len(s.prompts))]
	text, ok := example[lang]
	if !ok {
		text = example["zh-cn"]
	}
	writeJSON(rw, CommonResponse{Data: text})
}

func toSDImages(list []db.SDImageDB) []SDImage {
	out := make([]SDImage, 0, len(list))
	for _, m := range list {
		out = append(out, SDImage{
			ID:             m.ID,
			CreatedAt:      m.CreatedAt,
			UUID:           m.UUID,
			TaskID:         m.TaskID,
			Name:           m.Name,
			OriginPrompt:   m.OriginPrompt,
			Prompt:         m.Prompt,
			NegativePrompt: m.NegativePrompt,
			Width:          m.Width,
			Height:         m.Height,
			Seed:           m.Seed,
			Steps:          m.Steps,
			Cfg:            m.Cfg,
			SamplerName:    m.SamplerName,
			Scheduler:      m.Scheduler,
			Denoise:        m.Denoise,
			CkptName:       m.CkptName,
		})
	}
	return out
}

// writeErr/JSON 公共返回工具。
func writeErr(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(CommonResponse{Code: code, Msg: err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
