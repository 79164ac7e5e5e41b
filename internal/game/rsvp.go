package game

import (
	"errors"
	"fmt"
	"slices"
)

// Status - корзина RSVP, в которой находится пользователь.
type Status string

const (
	StatusIn      Status = "in"
	StatusOut     Status = "out"
	StatusPending Status = "pending"
)

var ErrInvalidResponse = errors.New("game: invalid response")

// TimerChoices - варианты задержки для "Pending".
var TimerChoices = []string{"5m", "10m", "15m", "30m"}

// Response - ответ одного пользователя. Label заполнен только для Pending.
type Response struct {
	UserID int64  `json:"user_id"`
	Status Status `json:"status"`
	Label  string `json:"label,omitempty"`
}

func In(userID int64) Response  { return Response{UserID: userID, Status: StatusIn} }
func Out(userID int64) Response { return Response{UserID: userID, Status: StatusOut} }

// Pending строит ответ "опоздаю на choice", choice должен быть из TimerChoices.
func Pending(userID int64, choice string) (Response, error) {
	if !slices.Contains(TimerChoices, choice) {
		return Response{}, fmt.Errorf("%w: unknown timer %q", ErrInvalidResponse, choice)
	}
	return Response{UserID: userID, Status: StatusPending, Label: "in " + choice}, nil
}

func (r Response) validate() error {
	if r.UserID == 0 {
		return fmt.Errorf("%w: user is required", ErrInvalidResponse)
	}
	switch r.Status {
	case StatusIn, StatusOut:
		if r.Label != "" {
			return fmt.Errorf("%w: label only allowed for pending", ErrInvalidResponse)
		}
	case StatusPending:
		if r.Label == "" {
			return fmt.Errorf("%w: pending needs a label", ErrInvalidResponse)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidResponse, r.Status)
	}
	return nil
}

// Respond переводит пользователя в новую корзину: старый ответ удаляется,
// новый добавляется в конец. Повторный одинаковый ответ ничего не меняет
// и сохраняет позицию в списке.
func (s *Session) Respond(r Response) error {
	if err := r.validate(); err != nil {
		return err
	}
	idx := slices.IndexFunc(s.Responses, func(cur Response) bool { return cur.UserID == r.UserID })
	if idx >= 0 {
		if s.Responses[idx] == r {
			return nil
		}
		s.Responses = slices.Delete(s.Responses, idx, idx+1)
	}
	s.Responses = append(s.Responses, r)
	return nil
}

// StatusOf возвращает текущий ответ пользователя, если он есть.
func (s *Session) StatusOf(userID int64) (Response, bool) {
	for _, r := range s.Responses {
		if r.UserID == userID {
			return r, true
		}
	}
	return Response{}, false
}

func (s *Session) InList() []int64  { return s.usersWith(StatusIn) }
func (s *Session) OutList() []int64 { return s.usersWith(StatusOut) }

// PendingList - ответы Pending в порядке поступления.
func (s *Session) PendingList() []Response {
	var out []Response
	for _, r := range s.Responses {
		if r.Status == StatusPending {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) usersWith(status Status) []int64 {
	var ids []int64
	for _, r := range s.Responses {
		if r.Status == status {
			ids = append(ids, r.UserID)
		}
	}
	return ids
}
