package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrTypeMismatch はイベントの種類とデコード先のデータ型が対応していないことを表す。
var ErrTypeMismatch = errors.New("イベントの種類とデータ型が一致しません")

// Payload はイベントに載せるデータ。自身に対応するイベントの種類を知っている。
type Payload interface {
	EventType() Type
}

// EventType はSessionStartedを返す。
func (SessionStartedData) EventType() Type { return TypeSessionStarted }

// EventType はSessionEndedを返す。
func (SessionEndedData) EventType() Type { return TypeSessionEnded }

// New はペイロードからイベントを生成する。種類はペイロードの型で決まる。
func New(p Payload) (*Event, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      p.EventType(),
		Data:      raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Decode はイベントのデータをTとして取り出す。
// Tの種類がイベントの種類と異なる場合はErrTypeMismatchを返す。
func Decode[T Payload](e *Event) (T, error) {
	var data T
	if want := data.EventType(); e.Type != want {
		return data, fmt.Errorf("%w: %s を %s として読めません", ErrTypeMismatch, e.Type, want)
	}
	if len(e.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return data, fmt.Errorf("イベントデータのデシリアライズに失敗: %w", err)
	}
	return data, nil
}
