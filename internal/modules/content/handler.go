package content

import (
	"github.com/campus-site/core/internal/middleware"
	"github.com/campus-site/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler handles content HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts content routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/content")

	g.GET("/type/:type", h.listByType)
	g.GET("/id/:id", h.get)

	authed := g.Group("", authMW)
	authed.POST("", h.create)
	authed.GET("", h.list)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

// create POST /content
func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	doc, err := h.svc.Create(c.Request.Context(), in, middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// list GET /content?status=
func (h *Handler) list(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, docs)
}

// listByType GET /content/type/:type?status=
func (h *Handler) listByType(c *gin.Context) {
	docs, err := h.svc.ListByType(c.Request.Context(), c.Param("type"), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, docs)
}

// get GET /content/id/:id
func (h *Handler) get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, doc)
}

// update PUT /content/:id
func (h *Handler) update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, doc)
}

// delete DELETE /content/:id
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c)
}
