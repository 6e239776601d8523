package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	quotedomain "github.com/tramitex/cotiza/internal/quote/domain"
	"github.com/tramitex/cotiza/pkg/db/pagination"
)

func (s *Server) CreateQuote(c *gin.Context) {
	var req quotedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quoteSaves.WithLabelValues("create").Inc()

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListQuotes(c *gin.Context) {
	req := quotedomain.ListRequest{
		ClientID: c.Query("client_id"),
		Page: pagination.Pagination{
			PageToken: c.Query("page_token"),
		},
	}
	if size := c.Query("page_size"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "page_size must be an integer"))
			return
		}
		req.Page.PageSize = n
	}

	resp, err := s.quoteSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Quotes, "page_info": resp.PageInfo})
}

func (s *Server) GetQuoteByID(c *gin.Context) {
	resp, err := s.quoteSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuote(c *gin.Context) {
	var req quotedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quoteSaves.WithLabelValues("update").Inc()

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteQuote(c *gin.Context) {
	if err := s.quoteSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	quoteSaves.WithLabelValues("delete").Inc()

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

type replaceItemsRequest struct {
	Items []quotedomain.ItemInput `json:"items"`
}

func (s *Server) ReplaceQuoteItems(c *gin.Context) {
	var req replaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.ReplaceItems(c.Request.Context(), c.Param("id"), req.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quoteSaves.WithLabelValues("replace_items").Inc()

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddQuoteItemFromTemplate(c *gin.Context) {
	var req quotedomain.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.AddItemFromTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quoteSaves.WithLabelValues("add_item").Inc()

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuoteItemField(c *gin.Context) {
	index, err := itemIndex(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req quotedomain.UpdateItemFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quoteSvc.UpdateItemField(c.Request.Context(), c.Param("id"), index, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quoteSaves.WithLabelValues("update_item").Inc()

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveQuoteItem(c *gin.Context) {
	index, err := itemIndex(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.quoteSvc.RemoveItem(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quoteSaves.WithLabelValues("remove_item").Inc()

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetQuoteTotals(c *gin.Context) {
	resp, err := s.quoteSvc.Totals(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func itemIndex(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, quotedomain.ErrInvalidItemIndex
	}
	return index, nil
}
