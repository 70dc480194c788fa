package models

import "time"

// Location координаты пользователя, передаваемые вместе с сообщением.
type Location struct {
	Lat float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng float64 `json:"lng" validate:"required,min=-180,max=180"`
}

// Place место, найденное поиском поблизости.
type Place struct {
	Name     string  `json:"name"`
	Vicinity string  `json:"vicinity,omitempty"` // Адрес или окрестность
	Rating   float64 `json:"rating,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
	MapURL   string  `json:"map_url,omitempty"`
}

// ChatReply ответ AI-ассистента.
type ChatReply struct {
	Reply        string    `json:"reply"`
	Timestamp    time.Time `json:"timestamp"`
	NearbyPlaces []Place   `json:"nearby_places,omitempty"`
}

// ChatContext контекст диалога, хранящийся в кеше между сообщениями.
type ChatContext struct {
	Messages []ChatTurn `json:"messages"`
}

// ChatTurn одна реплика диалога.
type ChatTurn struct {
	Role    string `json:"role"` // user или assistant
	Content string `json:"content"`
}

// DummyChatMessage используется для приёма сообщения чата из JSON-запроса.
type DummyChatMessage struct {
	Message  string    `json:"message" validate:"required,min=1,max=2000"`
	ChatID   string    `json:"chat_id" validate:"omitempty,uuid"`
	Location *Location `json:"location"`
}

// DummyNearby используется для приёма запроса поиска мест поблизости.
type DummyNearby struct {
	Location Location `json:"location" validate:"required"`
	Category string   `json:"category" validate:"omitempty,max=50"`
	Keyword  string   `json:"keyword" validate:"omitempty,max=100"`
	Radius   int      `json:"radius" validate:"omitempty,gt=0,lte=50000"`
}
