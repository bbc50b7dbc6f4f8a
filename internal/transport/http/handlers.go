package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	schedulerv1 "smartscheduler/internal/api/schedulerv1"
	"smartscheduler/internal/assistant"
	"smartscheduler/internal/calendar"
	"smartscheduler/internal/service/scheduling"
	"smartscheduler/internal/speech"
)

type turnRequest struct {
	Text           string          `json:"text"`
	State          assistant.State `json:"state"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

type turnResponse struct {
	assistant.Outcome
	// Transcript is what the recognizer heard, for audio turns.
	Transcript string `json:"transcript,omitempty"`
}

func (h *handler) findSlots(c *gin.Context) {
	var req schedulerv1.FindFreeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body", "details": err.Error()})
		return
	}
	if req.WindowStart.IsZero() || req.WindowEnd.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_start and window_end are required"})
		return
	}

	duration, err := scheduling.MinutesToDuration("duration", int64(req.DurationMinutes), scheduling.MaxEventLength)
	if err != nil {
		h.writeError(c, "find slots failed", err)
		return
	}
	step, err := scheduling.MinutesToDuration("step", int64(req.StepMinutes), scheduling.MaxWindow)
	if err != nil {
		h.writeError(c, "find slots failed", err)
		return
	}

	slots, err := h.slots.FindSlots(c.Request.Context(), scheduling.FindSlotsInput{
		CalendarID:  req.CalendarID,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		Duration:    duration,
		Step:        step,
	})
	if err != nil {
		h.writeError(c, "find slots failed", err)
		return
	}

	resp := schedulerv1.FindFreeSlotsResponse{Slots: make([]schedulerv1.Slot, 0, len(slots))}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, schedulerv1.Slot{Start: s.Start, End: s.End})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) turn(c *gin.Context) {
	var (
		req        turnRequest
		transcript string
		ok         bool
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req, transcript, ok = h.audioTurn(c)
	} else {
		ok = h.bindTextTurn(c, &req)
	}
	if !ok {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	}

	out, err := h.assistant.Turn(c.Request.Context(), req.State, assistant.Input{
		Text:           req.Text,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.writeError(c, "assistant turn failed", err)
		return
	}
	c.JSON(http.StatusOK, turnResponse{Outcome: out, Transcript: transcript})
}

func (h *handler) bindTextTurn(c *gin.Context, req *turnRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body", "details": err.Error()})
		return false
	}
	return true
}

// audioTurn reads a multipart turn: an "audio" WAV file plus optional
// "state" (JSON) and "idempotency_key" fields. A clip with no recognizable
// speech becomes an empty utterance so the assistant can ask again.
func (h *handler) audioTurn(c *gin.Context) (turnRequest, string, bool) {
	var req turnRequest
	if h.transcriber == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "voice input is not configured"})
		return req, "", false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxAudioBytes+(1<<20))
	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file is too large"})
			return req, "", false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required", "details": err.Error()})
		return req, "", false
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, h.maxAudioBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read audio file", "details": err.Error()})
		return req, "", false
	}
	if int64(len(audio)) > h.maxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file is too large"})
		return req, "", false
	}

	if raw := strings.TrimSpace(c.PostForm("state")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.State); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state field", "details": err.Error()})
			return req, "", false
		}
	}
	req.IdempotencyKey = strings.TrimSpace(c.PostForm("idempotency_key"))

	text, err := h.transcriber.Transcribe(c.Request.Context(), audio)
	switch {
	case errors.Is(err, speech.ErrNoSpeech):
		h.log.Info("no speech in audio turn", slog.Int("bytes", len(audio)))
	case errors.Is(err, speech.ErrInvalidWAV):
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio must be 16-bit PCM WAV", "details": err.Error()})
		return req, "", false
	case err != nil:
		if ctxErr := c.Request.Context().Err(); ctxErr != nil {
			h.writeError(c, "transcription failed", ctxErr)
			return req, "", false
		}
		h.log.Error("transcription failed", slog.Any("err", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "transcription failed"})
		return req, "", false
	}
	req.Text = text
	return req, text, true
}

func (h *handler) writeError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)

	var vErr *scheduling.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, calendar.ErrUnavailable):
		h.log.Warn(msg, slog.Any("err", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar unavailable, retry later"})
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warn(msg, slog.Any("err", err))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(499)
	default:
		h.log.Error(msg, slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
