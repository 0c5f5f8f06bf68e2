// Package reminder manages medication intake reminders, persisted as a
// whole-list snapshot in the key-value backend. Reminders are independent of
// the analysis that spawned them.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zovida/core/internal/models"
	"github.com/zovida/core/internal/pkg/keyvalue"
	"github.com/zovida/core/internal/pkg/response"
)

// StorageKey is the backend key holding the serialized reminder list. It is
// deliberately separate from the history key; no cross-referencing integrity
// is enforced between the two.
const StorageKey = "zovida:reminders"

const defaultTime = "08:00 AM"

var allDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var ErrNotFound = errors.New("reminder not found")

type CreateReminderDTO struct {
	MedicineName string   `json:"medicineName" binding:"required"`
	Dosage       string   `json:"dosage"`
	Time         string   `json:"time"`
	Days         []string `json:"days"`
}

type UpdateReminderDTO struct {
	MedicineName *string   `json:"medicineName"`
	Dosage       *string   `json:"dosage"`
	Time         *string   `json:"time"`
	Days         *[]string `json:"days"`
	IsActive     *bool     `json:"isActive"`
}

// Store owns the persisted reminder list.
type Store struct {
	mu      sync.Mutex
	backend keyvalue.Backend
	key     string
	log     *zap.Logger
}

func NewStore(backend keyvalue.Backend, log *zap.Logger) *Store {
	return &Store{backend: backend, key: StorageKey, log: log}
}

func (s *Store) List(ctx context.Context) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add creates a reminder from manual input. Missing time/days fall back to
// the defaults used for analysis-derived reminders.
func (s *Store) Add(ctx context.Context, dto *CreateReminderDTO) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	item := models.Reminder{
		ID:           uuid.New().String(),
		MedicineName: dto.MedicineName,
		Dosage:       dto.Dosage,
		Time:         dto.Time,
		Days:         dto.Days,
		IsActive:     true,
	}
	if item.Time == "" {
		item.Time = defaultTime
	}
	if len(item.Days) == 0 {
		item.Days = append([]string(nil), allDays...)
	}

	list = append(list, item)
	if err := s.save(ctx, list); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateFromResult creates one reminder per medicine in an analysis result,
// with the default time and all seven days.
func (s *Store) CreateFromResult(ctx context.Context, result *models.AnalysisResult) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	created := make([]models.Reminder, 0, len(result.Medicines))
	for _, med := range result.Medicines {
		item := models.Reminder{
			ID:           uuid.New().String(),
			MedicineName: med.Name,
			Dosage:       med.Dosage,
			Time:         defaultTime,
			Days:         append([]string(nil), allDays...),
			IsActive:     true,
		}
		created = append(created, item)
		list = append(list, item)
	}

	if err := s.save(ctx, list); err != nil {
		return nil, err
	}
	return created, nil
}

// Toggle flips a reminder's active flag.
func (s *Store) Toggle(ctx context.Context, id string) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].IsActive = !list[i].IsActive
			if err := s.save(ctx, list); err != nil {
				return nil, err
			}
			return &list[i], nil
		}
	}
	return nil, ErrNotFound
}

// Update applies a partial edit to a reminder.
func (s *Store) Update(ctx context.Context, id string, dto *UpdateReminderDTO) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if dto.MedicineName != nil {
			list[i].MedicineName = *dto.MedicineName
		}
		if dto.Dosage != nil {
			list[i].Dosage = *dto.Dosage
		}
		if dto.Time != nil {
			list[i].Time = *dto.Time
		}
		if dto.Days != nil {
			list[i].Days = *dto.Days
		}
		if dto.IsActive != nil {
			list[i].IsActive = *dto.IsActive
		}
		if err := s.save(ctx, list); err != nil {
			return nil, err
		}
		return &list[i], nil
	}
	return nil, ErrNotFound
}

// Remove deletes a reminder by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, item := range list {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(list) {
		return ErrNotFound
	}
	return s.save(ctx, kept)
}

func (s *Store) load(ctx context.Context) ([]models.Reminder, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var list []models.Reminder
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("stored reminders are corrupt: %w", err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []models.Reminder) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key, string(data))
}

type Handler struct {
	store   *Store
	results interface {
		CurrentResult() *models.AnalysisResult
	}
}

func NewHandler(store *Store, results interface {
	CurrentResult() *models.AnalysisResult
}) *Handler {
	return &Handler{store: store, results: results}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/reminders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/from-result", h.createFromResult)
	g.PATCH("/:id", h.update)
	g.POST("/:id/toggle", h.toggle)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if list == nil {
		list = []models.Reminder{}
	}
	response.OK(c, list)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateReminderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	item, err := h.store.Add(c.Request.Context(), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, item)
}

// POST /reminders/from-result — one reminder per medicine of the current
// analysis result.
func (h *Handler) createFromResult(c *gin.Context) {
	result := h.results.CurrentResult()
	if result == nil {
		response.NotFoundMsg(c, "no current result")
		return
	}
	created, err := h.store.CreateFromResult(c.Request.Context(), result)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"data": created})
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateReminderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	item, err := h.store.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, item)
}

func (h *Handler) toggle(c *gin.Context) {
	item, err := h.store.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, item)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
