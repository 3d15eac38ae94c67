package server

import (
	"fmt"
	"io"
	"net/http"

	invoicedomain "github.com/ajyalhq/ajyal/internal/invoice/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GenerateMonthlyInvoice(c *gin.Context) {
	var req invoicedomain.GenerateMonthlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.invoiceSvc.GenerateMonthly(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) CreateManualInvoice(c *gin.Context) {
	var req invoicedomain.CreateManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.invoiceSvc.CreateManual(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) TransitionInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req invoicedomain.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	updated, err := s.invoiceSvc.Transition(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.invoiceSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenant, err := s.tenantSvc.Current(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdfProvider.GenerateInvoice(c.Request.Context(), tenant, invoice)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", invoice.Number+".pdf"))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, doc); err != nil {
		s.log.Warn("pdf stream interrupted")
	}
}
