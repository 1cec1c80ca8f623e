package telegram

// Minimal subset of the Bot API payloads this service touches.

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type Message struct {
	MessageID int64       `json:"message_id"`
	Chat      Chat        `json:"chat"`
	From      *From       `json:"from"`
	Text      string      `json:"text"`
	Voice     *File       `json:"voice"`
	Audio     *File       `json:"audio"`
	Photo     []PhotoSize `json:"photo"`
	Contact   *Contact    `json:"contact"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type From struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type File struct {
	FileID string `json:"file_id"`
}

type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *From    `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}
