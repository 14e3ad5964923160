package server

import (
	"fmt"
	"time"

	"github.com/meonghae/profile-service/server/schedule"
	"github.com/meonghae/profile-service/server/storage"
)

const dateLayout = "2006-01-02"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type petRequest struct {
	Name      string `json:"name"`
	Species   string `json:"species"`
	BirthDate string `json:"birthDate,omitempty"`
}

type petResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Species   string `json:"species"`
	BirthDate string `json:"birthDate,omitempty"`
}

type scheduleRequest struct {
	PetID        int64     `json:"petId"`
	Text         string    `json:"text"`
	ScheduleTime time.Time `json:"scheduleTime"`
	HasRepeat    bool      `json:"hasRepeat"`
	ScheduleType string    `json:"scheduleType"`
	CycleType    int       `json:"cycleType"`
	Cycle        int       `json:"cycle"`
	CycleCount   int       `json:"cycleCount"`
}

type scheduleResponse struct {
	ID              int64     `json:"id"`
	PetID           int64     `json:"petId"`
	PetName         string    `json:"petName"`
	Text            string    `json:"text"`
	ScheduleTime    time.Time `json:"scheduleTime"`
	ScheduleEndTime time.Time `json:"scheduleEndTime"`
	HasRepeat       bool      `json:"hasRepeat"`
	ScheduleType    string    `json:"scheduleType"`
	CycleType       string    `json:"cycleType"`
	Cycle           int       `json:"cycle"`
	CycleCount      int       `json:"cycleCount"`
}

type previewResponse struct {
	ID           int64     `json:"id"`
	PetName      string    `json:"petName"`
	Text         string    `json:"text"`
	ScheduleType string    `json:"scheduleType"`
	ScheduleTime time.Time `json:"scheduleTime"`
}

type dayResponse struct {
	Day         int     `json:"day"`
	ScheduleIDs []int64 `json:"scheduleIds"`
}

type monthResponse struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []dayResponse `json:"days"`
}

type deletedResponse struct {
	Deleted int `json:"deleted"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r scheduleRequest) toRequest() (schedule.Request, error) {
	typ := storage.ScheduleCustom
	if r.ScheduleType != "" {
		t, ok := storage.ParseScheduleType(r.ScheduleType)
		if !ok {
			return schedule.Request{}, fmt.Errorf("%w: unknown schedule type %q", schedule.ErrInvalidRequest, r.ScheduleType)
		}
		typ = t
	}
	return schedule.Request{
		PetID: r.PetID,
		Text:  r.Text,
		Policy: storage.Policy{
			HasRepeat:    r.HasRepeat,
			Type:         typ,
			CycleType:    storage.CycleType(r.CycleType),
			Cycle:        r.Cycle,
			CycleCount:   r.CycleCount,
			ScheduleTime: r.ScheduleTime,
		},
	}, nil
}

func newScheduleResponse(s storage.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:              s.ID,
		PetID:           s.PetID,
		PetName:         s.PetName,
		Text:            s.Text,
		ScheduleTime:    s.ScheduleTime,
		ScheduleEndTime: s.ScheduleEndTime,
		HasRepeat:       s.HasRepeat,
		ScheduleType:    s.Type.String(),
		CycleType:       s.CycleType.String(),
		Cycle:           s.Cycle,
		CycleCount:      s.CycleCount,
	}
}

func newScheduleResponses(schedules []storage.Schedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, newScheduleResponse(s))
	}
	return out
}

func newPreviewResponses(previews []schedule.Preview) []previewResponse {
	out := make([]previewResponse, 0, len(previews))
	for _, p := range previews {
		out = append(out, previewResponse{
			ID:           p.Schedule.ID,
			PetName:      p.Schedule.PetName,
			Text:         p.Schedule.Text,
			ScheduleType: p.Schedule.Type.String(),
			ScheduleTime: p.At,
		})
	}
	return out
}

func newMonthResponses(g schedule.MonthGrouping) []monthResponse {
	out := make([]monthResponse, 0, len(g))
	for _, m := range g {
		days := make([]dayResponse, 0, len(m.Days))
		for _, d := range m.Days {
			days = append(days, dayResponse{Day: d.Day, ScheduleIDs: d.ScheduleIDs})
		}
		out = append(out, monthResponse{Year: m.Year, Month: int(m.Month), Days: days})
	}
	return out
}

func newPetResponse(p storage.Pet) petResponse {
	resp := petResponse{ID: p.ID, Name: p.Name, Species: p.Species}
	if p.BirthDate != nil {
		resp.BirthDate = p.BirthDate.Format(dateLayout)
	}
	return resp
}
