package repository

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"doccatalog/internal/model"
)

// Codec serializes a document collection. Timestamps must survive a round
// trip as the same instant.
type Codec interface {
	Marshal(docs []model.Document) ([]byte, error)
	Unmarshal(data []byte) ([]model.Document, error)
	// Ext is the file extension used for snapshots, without the dot.
	Ext() string
	// ContentType is the MIME type of encoded payloads.
	ContentType() string
}

// CodecByName returns the codec registered under name ("json" or "msgpack").
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// JSONCodec encodes collections as a JSON array with RFC 3339 timestamps.
type JSONCodec struct{}

func (JSONCodec) Marshal(docs []model.Document) ([]byte, error) {
	if docs == nil {
		docs = []model.Document{}
	}
	return json.Marshal(docs)
}

func (JSONCodec) Unmarshal(data []byte) ([]model.Document, error) {
	docs := []model.Document{}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: null payload", ErrCorrupt)
	}
	return Normalize(docs), nil
}

func (JSONCodec) Ext() string         { return "json" }
func (JSONCodec) ContentType() string { return "application/json" }

// MsgpackCodec encodes collections as MessagePack using the timestamp
// extension type.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(docs []model.Document) ([]byte, error) {
	if docs == nil {
		docs = []model.Document{}
	}
	return msgpack.Marshal(docs)
}

func (MsgpackCodec) Unmarshal(data []byte) ([]model.Document, error) {
	docs := []model.Document{}
	if err := msgpack.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: nil payload", ErrCorrupt)
	}
	return Normalize(docs), nil
}

func (MsgpackCodec) Ext() string         { return "msgpack" }
func (MsgpackCodec) ContentType() string { return "application/msgpack" }
