package game

import "errors"

var (
	ErrInvalidName      = errors.New("room name must not be empty")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomClosed       = errors.New("room is closed")
	ErrNotInRoom        = errors.New("player is not a room member")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrRoundNotActive   = errors.New("round is not active")
	ErrExpired          = errors.New("round deadline has passed")
	ErrEmptyMessage     = errors.New("message must not be empty")
	ErrExhaustedContent = errors.New("content pool smaller than round count")
	ErrIDSpaceExhausted = errors.New("could not generate a unique room id")
)
