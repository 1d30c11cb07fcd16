package sdk

import (
	"bytes"
	"encoding/json"
	"time"
)

// User is a participant, seller, buyer or the signed-in account.
// On the wire a user reference is either a bare id or a populated object; both decode into User.
type User struct {
	Id                string    `json:"_id"`
	Name              string    `json:"name,omitempty"`
	Email             string    `json:"email,omitempty"`
	ProfilePicture    string    `json:"profilePicture,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Website           string    `json:"website,omitempty"`
	ProfileVisibility string    `json:"profileVisibility,omitempty"`
	Interests         []string  `json:"interests,omitempty"`
	Verified          bool      `json:"verified,omitempty"`
	IsOnline          bool      `json:"isOnline"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var obj struct {
		alias
		Id string `json:"id"`
	}
	ok, err := decodeRef(data, &u.Id, &obj)
	if err != nil || !ok {
		return err
	}
	*u = User(obj.alias)
	if u.Id == "" {
		u.Id = obj.Id
	}
	return nil
}

// IsZero reports whether u carries no identity
func (u *User) IsZero() bool {
	return u == nil || u.Id == ""
}

// ID is a reference that may arrive as a bare id or as an object carrying _id
type ID string

func (i *ID) UnmarshalJSON(data []byte) error {
	var obj struct {
		Id string `json:"_id"`
	}
	var s string
	ok, err := decodeRef(data, &s, &obj)
	if err != nil {
		return err
	}
	if ok {
		s = obj.Id
	}
	*i = ID(s)
	return nil
}

// decodeRef decodes data as either a bare string into id, or as an object into obj.
// It reports true when obj was filled.
func decodeRef(data []byte, id *string, obj any) (bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return false, nil
	}
	if data[0] == '"' {
		return false, json.Unmarshal(data, id)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return false, err
	}
	return true, nil
}

// Location is a GeoJSON style point with a free-form address
type Location struct {
	Coordinates []float64 `json:"coordinates,omitempty"`
	Address     string    `json:"address,omitempty"`
}

// Post is an item listed in the marketplace
type Post struct {
	Id            string    `json:"_id"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price,omitempty"`
	Category      string    `json:"category,omitempty"`
	Condition     string    `json:"condition,omitempty"`
	PostType      string    `json:"postType,omitempty"`
	ExchangeFor   string    `json:"exchangeFor,omitempty"`
	Images        []string  `json:"images,omitempty"`
	Location      *Location `json:"location,omitempty"`
	User          *User     `json:"user,omitempty"`
	InterestCount int       `json:"interestCount,omitempty"`
	Views         int       `json:"views,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

func (p *Post) UnmarshalJSON(data []byte) error {
	type alias Post
	var obj alias
	ok, err := decodeRef(data, &p.Id, &obj)
	if err != nil || !ok {
		return err
	}
	*p = Post(obj)
	return nil
}

// Booth is a staffed meeting point. A booth reference on an exchange may be just its name.
type Booth struct {
	Id          int       `json:"id,omitempty"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	Hours       string    `json:"hours,omitempty"`
	Contact     string    `json:"contact,omitempty"`
	Distance    string    `json:"distance,omitempty"`
}

func (b *Booth) UnmarshalJSON(data []byte) error {
	type alias Booth
	var obj alias
	ok, err := decodeRef(data, &b.Name, &obj)
	if err != nil || !ok {
		return err
	}
	*b = Booth(obj)
	return nil
}

// LastMessage is the preview carried on a conversation
type LastMessage struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Conversation is a two-party thread about one post
type Conversation struct {
	Id           string       `json:"_id"`
	Participants []*User      `json:"participants"`
	Post         *Post        `json:"post,omitempty"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount  int          `json:"unreadCount,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt,omitempty"`
}

// Clone returns a copy whose participant entries can be modified independently
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Participants = make([]*User, len(c.Participants))
	for i, p := range c.Participants {
		if p == nil {
			continue
		}
		cp := *p
		out.Participants[i] = &cp
	}
	return &out
}

// OtherParticipant returns the participant that is not userId
func (c *Conversation) OtherParticipant(userId string) *User {
	if c == nil {
		return nil
	}
	for _, p := range c.Participants {
		if p != nil && p.Id != userId {
			return p
		}
	}
	return nil
}

// HasParticipant reports whether userId takes part in c
func (c *Conversation) HasParticipant(userId string) bool {
	for _, p := range c.Participants {
		if p != nil && p.Id == userId {
			return true
		}
	}
	return false
}

// Message is a chat message, immutable once created
type Message struct {
	Id             string    `json:"_id"`
	ConversationId ID        `json:"conversation"`
	Sender         *User     `json:"sender,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// IsMine reports whether the message was sent by userId
func (m *Message) IsMine(userId string) bool {
	return m != nil && m.Sender != nil && m.Sender.Id == userId
}

// ExchangeRequest tracks a proposed meeting between buyer and seller
type ExchangeRequest struct {
	Id           string    `json:"_id"`
	Buyer        *User     `json:"buyer,omitempty"`
	Seller       *User     `json:"seller,omitempty"`
	Post         *Post     `json:"post,omitempty"`
	Booth        *Booth    `json:"selectedBooth,omitempty"`
	MeetingTime  string    `json:"meetingTime,omitempty"`
	Status       string    `json:"status"`
	InvoiceToken string    `json:"invoiceToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// SellerId returns the seller's id whatever shape it arrived in
func (e *ExchangeRequest) SellerId() string {
	if e == nil || e.Seller == nil {
		return ""
	}
	return e.Seller.Id
}

// BuyerId returns the buyer's id whatever shape it arrived in
func (e *ExchangeRequest) BuyerId() string {
	if e == nil || e.Buyer == nil {
		return ""
	}
	return e.Buyer.Id
}

// ExchangeCounts is the optional summary returned with the request list
type ExchangeCounts struct {
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Completed int `json:"completed"`
}

// ExchangeList is the normalized result of listing exchange requests.
// The server answers either {exchanges, counts} or a bare array.
type ExchangeList struct {
	Exchanges []*ExchangeRequest `json:"exchanges"`
	Counts    *ExchangeCounts    `json:"counts,omitempty"`
}

func (l *ExchangeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		l.Counts = nil
		return json.Unmarshal(data, &l.Exchanges)
	}
	type alias ExchangeList
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = ExchangeList(obj)
	return nil
}

// LoginRequest is the body of a password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the body of an account creation
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// InterestResponse is returned when a user toggles interest in a post
type InterestResponse struct {
	InterestCount int  `json:"interestCount"`
	Interested    bool `json:"interested"`
}

// StartExchangeRequest is the body of a new exchange request
type StartExchangeRequest struct {
	PostId      string `json:"postId" validate:"required"`
	Booth       *Booth `json:"booth" validate:"required"`
	MeetingTime string `json:"meetingTime" validate:"required"`
}

// AcceptExchangeResponse carries the invoice token issued on acceptance
type AcceptExchangeResponse struct {
	Message      string           `json:"message,omitempty"`
	InvoiceToken string           `json:"invoiceToken"`
	Exchange     *ExchangeRequest `json:"exchange,omitempty"`
}

// UpdateProfileRequest holds the editable profile fields
type UpdateProfileRequest struct {
	Bio               string   `json:"bio" validate:"max=500"`
	Website           string   `json:"website" validate:"omitempty,url"`
	Phone             string   `json:"phone" validate:"omitempty,max=32"`
	ProfileVisibility string   `json:"profileVisibility" validate:"omitempty,oneof=public private"`
	Interests         []string `json:"interests"`
}

// CreatePostRequest holds the fields of a new post; images travel as multipart files
type CreatePostRequest struct {
	Title       string        `validate:"required"`
	Description string        `validate:"required"`
	Price       int           `validate:"gte=0"`
	Category    string        `validate:"required"`
	Condition   string        `validate:"required"`
	PostType    string        `validate:"omitempty,oneof=exchange sale"`
	ExchangeFor string
	Location    *Location
	Images      []*FileUpload `validate:"min=1,max=4,dive,required"`
}

// ProfileStats are the counters shown on a profile page
type ProfileStats struct {
	PostsCount         int
	ExchangesCompleted int
	TotalViews         int
	TotalInterests     int
}
