// Package wire defines the self-describing text message schema exchanged
// between the transport and its connected clients (spec §4.4, §6): a tagged
// union keyed by a "type" discriminator, encoded as JSON.
package wire

import (
	json "github.com/goccy/go-json"
)

// Type selects which payload variant an Envelope carries.
type Type string

const (
	TypeConnect           Type = "connect"
	TypeDisconnect        Type = "disconnect"
	TypePlayerJoined      Type = "player_joined"
	TypePlayerLeft        Type = "player_left"
	TypePlayerUpdate      Type = "player_update"
	TypeObjectSpawned     Type = "object_spawned"
	TypeObjectMoved       Type = "object_moved"
	TypeObjectDestroyed   Type = "object_destroyed"
	TypeObjectGrabbed     Type = "object_grabbed"
	TypeObjectReleased    Type = "object_released"
	TypeVoiceData         Type = "voice_data"
	TypeCustomEvent       Type = "custom_event"
	TypeError             Type = "error"
	TypeSuccess           Type = "success"
)

// Envelope is the wire-level container: a type discriminator plus the raw
// variant payload. Decode in two steps — unmarshal the envelope, then
// unmarshal Payload into the struct matching Type.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerView is the wire projection of a player's in-room record.
type PlayerView struct {
	PlayerID   string            `json:"playerId"`
	Username   string            `json:"username"`
	AvatarURL  string            `json:"avatarUrl,omitempty"`
	Pose       Pose              `json:"pose"`
	Speaking   bool              `json:"speaking"`
	CustomData map[string]string `json:"customData,omitempty"`
}

type ConnectPayload struct {
	Token  string `json:"token"`
	GameID string `json:"gameId"`
}

type DisconnectPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerJoinedPayload struct {
	Player PlayerView `json:"player"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerUpdatePayload struct {
	PlayerID string `json:"playerId"`
	Pose     Pose   `json:"pose"`
}

type ObjectSpawnedPayload struct {
	ObjectID   string     `json:"objectId"`
	ObjectType string     `json:"objectType"`
	Position   Vector3    `json:"position"`
	Rotation   Quaternion `json:"rotation"`
}

type ObjectMovedPayload struct {
	ObjectID string     `json:"objectId"`
	Position Vector3    `json:"position"`
	Rotation Quaternion `json:"rotation"`
}

type ObjectDestroyedPayload struct {
	ObjectID string `json:"objectId"`
}

type ObjectGrabbedPayload struct {
	ObjectID string `json:"objectId"`
	PlayerID string `json:"playerId"`
}

type ObjectReleasedPayload struct {
	ObjectID string `json:"objectId"`
}

type VoiceDataPayload struct {
	PlayerID   string `json:"playerId"`
	AudioBytes []byte `json:"audioBytes"`
}

type CustomEventPayload struct {
	EventName string          `json:"eventName"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type SuccessPayload struct {
	Message string `json:"message"`
}

// Encode marshals a typed payload into an Envelope's wire bytes.
func Encode(t Type, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// Decode unmarshals the envelope only; callers dispatch on Type and
// unmarshal Payload into the matching struct themselves.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(data, &env)
	return env, err
}

// DecodePayload is a convenience wrapper around json.Unmarshal for an
// Envelope's raw Payload, so callers don't need to import goccy directly.
func DecodePayload(env Envelope, out any) error {
	return json.Unmarshal(env.Payload, out)
}

// EncodeError builds the wire Error{message} frame the transport sends a
// client when its connection handshake fails.
func EncodeError(message string) ([]byte, error) {
	return Encode(TypeError, ErrorPayload{Message: message})
}

// EncodeSuccess builds the wire Success{message} frame.
func EncodeSuccess(message string) ([]byte, error) {
	return Encode(TypeSuccess, SuccessPayload{Message: message})
}
