package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Event struct {
	Id           int    `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Slug         string `gorm:"uniqueIndex;not null"`
	Description  string `gorm:"null"`
	IsCurrent    bool   `gorm:"not null"`
	Competitions []*Competition `gorm:"foreignKey:EventId;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) GetCurrentEvent(preloads ...string) (*Event, error) {
	var event *Event
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Where("is_current = ?", true).First(&event)
	if result.Error != nil {
		return nil, fmt.Errorf("no current event found: %v", result.Error)
	}
	return event, nil
}

func (r *EventRepository) GetEventById(eventId int, preloads ...string) (*Event, error) {
	var event *Event
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&event, eventId)
	if result.Error != nil {
		return nil, result.Error
	}
	return event, nil
}

func (r *EventRepository) GetEventBySlug(slug string, preloads ...string) (*Event, error) {
	var event *Event
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.First(&event, "slug = ?", slug)
	if result.Error != nil {
		return nil, result.Error
	}
	return event, nil
}

func (r *EventRepository) Save(event *Event) (*Event, error) {
	if event.IsCurrent {
		err := r.InvalidateCurrentEvent()
		if err != nil {
			return nil, err
		}
	}
	result := r.DB.Save(event)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save event: %v", result.Error)
	}
	return event, nil
}

func (r *EventRepository) InvalidateCurrentEvent() error {
	result := r.DB.Model(&Event{}).Where("is_current = ?", true).Update("is_current", false)
	if result.Error != nil {
		return fmt.Errorf("failed to invalidate current event: %v", result.Error)
	}
	return nil
}

func (r *EventRepository) Delete(event *Event) error {
	return r.DB.Delete(&event).Error
}

func (r *EventRepository) FindAll(preloads ...string) ([]*Event, error) {
	var events []*Event
	query := r.DB
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	result := query.Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find events: %v", result.Error)
	}
	return events, nil
}
