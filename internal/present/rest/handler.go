package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/present/rest/presenter"
	"github.com/totegamma/dms/internal/usecase"
)

// EventStream feeds workflow events for the realtime endpoint.
type EventStream interface {
	Realtime(ctx context.Context, channels []string, output chan<- domain.WorkflowEvent) error
}

type Handler struct {
	workflow *usecase.WorkflowUsecase
	document *usecase.DocumentUsecase
	user     *usecase.UserUsecase
	events   EventStream
}

// NewHandler wires the use cases to HTTP. events may be nil, in which case
// the realtime endpoint answers 503.
func NewHandler(
	workflow *usecase.WorkflowUsecase,
	document *usecase.DocumentUsecase,
	user *usecase.UserUsecase,
	events EventStream,
) *Handler {
	return &Handler{
		workflow: workflow,
		document: document,
		user:     user,
		events:   events,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.handleInfo)

	e.GET("/users", h.handleListUsers)
	e.POST("/users/add", h.handleAddUsers)
	e.POST("/login", h.handleLogin)

	e.POST("/files/upload", h.handleUpload)
	e.GET("/files", h.handleListFiles)
	e.GET("/files/:document_id/download", h.handleDownload)
	e.DELETE("/files/delete/:filename", h.handleDeleteFile)

	e.POST("/associate/:document_id/:user_id", h.handleAssociate)
	e.GET("/associated_users/:document_id", h.handleAssociatedUsers)
	e.POST("/approve/:document_id/:user_id", h.statusHandler(domain.Approved))
	e.POST("/reject/:document_id/:user_id", h.statusHandler(domain.Rejected))
	e.POST("/reset/:document_id/:user_id", h.statusHandler(domain.Pending))
	e.PUT("/status/:document_id/:user_id", h.handleSetStatus)
	e.GET("/associated_documents/:user_id", h.handleAssociatedDocuments)
	e.DELETE("/disassociate/:document_id/:user_id", h.handleDisassociate)

	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleInfo(c echo.Context) error {
	return presenter.OK(c, echo.Map{"service": "dms", "status": "ok"})
}

// --- users ---

type addUsersRequest struct {
	Users []domain.NewUser `json:"List_Of_User"`
}

func (h *Handler) handleListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.user.List(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"users": users})
}

func (h *Handler) handleAddUsers(c echo.Context) error {
	ctx := c.Request().Context()

	var req addUsersRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	users, err := h.user.Import(ctx, req.Users)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, echo.Map{"users": users})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.user.Login(ctx, req.Email, req.Password)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, user)
}

// --- files ---

func (h *Handler) handleUpload(c echo.Context) error {
	ctx := c.Request().Context()

	header, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	file, err := header.Open()
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	doc, err := h.document.Upload(ctx, header.Filename, data)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, echo.Map{"document_id": doc.ID, "filename": doc.Filename})
}

func (h *Handler) handleListFiles(c echo.Context) error {
	ctx := c.Request().Context()

	files, err := h.document.List(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"files": files})
}

func (h *Handler) handleDownload(c echo.Context) error {
	ctx := c.Request().Context()

	doc, reader, err := h.document.Download(ctx, c.Param("document_id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(path.Ext(doc.Filename))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Stream(http.StatusOK, contentType, reader)
}

func (h *Handler) handleDeleteFile(c echo.Context) error {
	ctx := c.Request().Context()
	filename := c.Param("filename")

	deleted, err := h.document.Delete(ctx, filename)
	if err != nil {
		return presenter.Error(c, err)
	}
	if !deleted {
		return presenter.Detail(c, fmt.Sprintf("%s not found", filename))
	}
	return presenter.Detail(c, fmt.Sprintf("Deleted %s", filename))
}

// --- workflow ---

type associateRequest struct {
	Priority int `json:"priority"`
}

func (h *Handler) handleAssociate(c echo.Context) error {
	ctx := c.Request().Context()

	var req associateRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	if q := c.QueryParam("priority"); q != "" {
		req.Priority, err = strconv.Atoi(q)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid priority parameter")
		}
	}
	if req.Priority < 0 {
		return presenter.BadRequestMessage(c, "priority must be positive")
	}

	msg, err := h.workflow.Associate(ctx, c.Param("document_id"), c.Param("user_id"), req.Priority)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Detail(c, msg)
}

func (h *Handler) handleAssociatedUsers(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.workflow.ListAssociatedUsers(ctx, c.Param("document_id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"associated_users": users})
}

func (h *Handler) statusHandler(status domain.ApprovalStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.setStatus(c, status)
	}
}

type statusRequest struct {
	ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
}

func (h *Handler) handleSetStatus(c echo.Context) error {
	var req statusRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	return h.setStatus(c, req.ApprovalStatus)
}

func (h *Handler) setStatus(c echo.Context, status domain.ApprovalStatus) error {
	ctx := c.Request().Context()

	msg, err := h.workflow.SetStatus(ctx, c.Param("document_id"), c.Param("user_id"), status)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Detail(c, msg)
}

func (h *Handler) handleAssociatedDocuments(c echo.Context) error {
	ctx := c.Request().Context()

	docs, err := h.workflow.ResolveVisibleDocuments(ctx, c.Param("user_id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"associated_documents": docs})
}

func (h *Handler) handleDisassociate(c echo.Context) error {
	ctx := c.Request().Context()

	msg, err := h.workflow.Disassociate(ctx, c.Param("document_id"), c.Param("user_id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Detail(c, msg)
}

// --- realtime ---

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	var channels []string
	if userID := c.QueryParam("user_id"); userID != "" {
		channels = append(channels, domain.UserChannel(userID))
	}
	if documentID := c.QueryParam("document_id"); documentID != "" {
		channels = append(channels, domain.DocumentChannel(documentID))
	}
	if len(channels) == 0 {
		return presenter.BadRequestMessage(c, "user_id or document_id is required")
	}
	if h.events == nil {
		return presenter.Unavailable(c, "realtime events are not configured")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.WorkflowEvent)
	go func() {
		defer cancel()
		err := h.events.Realtime(ctx, channels, output)
		if err != nil {
			slog.ErrorContext(
				ctx, "Event subscription failed",
				slog.String("error", err.Error()),
				slog.String("module", "socket"),
			)
		}
	}()

	go func() {
		defer cancel()
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
