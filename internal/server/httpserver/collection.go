package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/engine"
	"github.com/dmitrijs2005/cardkeeper/internal/server/collections"
	"github.com/gin-gonic/gin"
)

type collectionInfo struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	BackendActive bool   `json:"backend_active"`
	RecordCount   int    `json:"record_count"`
}

type record struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type putRecordRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// mapEngineErr turns engine and handle errors into client errors.
func mapEngineErr(err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return common.NotFound("Record not found")
	case errors.Is(err, engine.ErrEmptyKey):
		return common.BadRequest("Record key must not be empty")
	case errors.Is(err, collections.ErrHandleClosed):
		return common.Conflict("Collection was closed, retry the request")
	default:
		return common.Internal("collection operation failed", err)
	}
}

// withCollection resolves the caller's handle and runs fn under its lock.
func (s *HTTPServer) withCollection(c *gin.Context, fn func(engine.Collection) error) bool {
	id, err := identity(c)
	if err != nil {
		writeError(c, s.logger, err)
		return false
	}
	h, err := s.deps.Collections.GetOrCreate(c.Request.Context(), id.UserID, id.Username)
	if err != nil {
		writeError(c, s.logger, err)
		return false
	}
	if err := h.Do(fn); err != nil {
		writeError(c, s.logger, mapEngineErr(err))
		return false
	}
	return true
}

func (s *HTTPServer) collectionInfo(c *gin.Context) {
	var count int
	ok := s.withCollection(c, func(coll engine.Collection) error {
		n, err := coll.Count()
		count = n
		return err
	})
	if !ok {
		return
	}

	id, _ := identity(c)
	respondData(c, http.StatusOK, collectionInfo{
		UserID:        id.UserID,
		Username:      id.Username,
		BackendActive: true,
		RecordCount:   count,
	})
}

func (s *HTTPServer) closeCollection(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	if err := s.deps.Collections.Close(id.UserID); err != nil {
		writeError(c, s.logger, err)
		return
	}
	respondMessage(c, "Collection closed successfully")
}

func (s *HTTPServer) listRecords(c *gin.Context) {
	prefix := c.Query("prefix")

	var keys []string
	ok := s.withCollection(c, func(coll engine.Collection) error {
		var err error
		keys, err = coll.Keys(prefix)
		return err
	})
	if !ok {
		return
	}
	if keys == nil {
		keys = []string{}
	}
	respondData(c, http.StatusOK, gin.H{"keys": keys})
}

func (s *HTTPServer) getRecord(c *gin.Context) {
	key := c.Param("key")

	var value []byte
	ok := s.withCollection(c, func(coll engine.Collection) error {
		var err error
		value, err = coll.Get(key)
		return err
	})
	if !ok {
		return
	}
	respondData(c, http.StatusOK, record{Key: key, Value: value})
}

func (s *HTTPServer) putRecord(c *gin.Context) {
	var req putRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, errBadBody)
		return
	}
	key := c.Param("key")

	ok := s.withCollection(c, func(coll engine.Collection) error {
		return coll.Put(key, req.Value)
	})
	if !ok {
		return
	}
	respondData(c, http.StatusOK, record{Key: key, Value: req.Value})
}

func (s *HTTPServer) deleteRecord(c *gin.Context) {
	key := c.Param("key")

	ok := s.withCollection(c, func(coll engine.Collection) error {
		return coll.Delete(key)
	})
	if !ok {
		return
	}
	respondMessage(c, "Record deleted")
}
