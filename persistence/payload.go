package persistence

import (
	"fmt"
	"math"

	"github.com/hupe1980/zimgraph/model"
)

// PageRecord is one entry of the key-to-Page mapping.
type PageRecord struct {
	Key  model.Key
	Page *model.Page
}

// EncodeVocabulary encodes strings in key order.
func EncodeVocabulary(strings []string) []byte {
	size := 8
	for _, s := range strings {
		size += len(s) + 2
	}
	pb := newPayloadBuffer(make([]byte, 0, size))
	pb.writeUvarint(uint64(len(strings)))
	for _, s := range strings {
		pb.writeString(s)
	}
	return pb.buf
}

// DecodeVocabulary is the inverse of EncodeVocabulary.
func DecodeVocabulary(b []byte) ([]string, error) {
	pb := newPayloadBuffer(b)
	n := pb.count(1)
	out := make([]string, n)
	for i := range out {
		out[i] = pb.readString()
	}
	if err := pb.finish(); err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	return out, nil
}

// EncodeGraph encodes pages. vocabSize binds the graph to the vocabulary
// it was built with. Weights are stored as float32 bits so a reload
// reproduces them exactly.
func EncodeGraph(vocabSize int, pages []PageRecord) []byte {
	size := 16
	for _, r := range pages {
		size += 8 + r.Page.Len()*8
	}
	pb := newPayloadBuffer(make([]byte, 0, size))
	pb.writeUvarint(uint64(vocabSize))
	pb.writeUvarint(uint64(len(pages)))
	for _, r := range pages {
		pb.writeUvarint(uint64(r.Key))
		pb.writeUvarint(uint64(r.Page.Len()))
		for _, l := range r.Page.Links {
			pb.writeUvarint(uint64(l.Target))
			pb.writeUint32(math.Float32bits(l.Weight))
		}
	}
	return pb.buf
}

// DecodeGraph is the inverse of EncodeGraph. It rejects keys outside the
// vocabulary of vocabSize strings.
func DecodeGraph(b []byte, vocabSize int) ([]PageRecord, error) {
	pb := newPayloadBuffer(b)

	if got := pb.readUvarint(); pb.err == nil && got != uint64(vocabSize) {
		return nil, fmt.Errorf("graph: %w: built for %d strings, vocabulary has %d", ErrCorrupt, got, vocabSize)
	}

	key := func() model.Key {
		k := pb.readUvarint()
		if pb.err == nil && k >= uint64(vocabSize) {
			pb.err = fmt.Errorf("%w: key %d outside vocabulary of %d", ErrCorrupt, k, vocabSize)
		}
		return model.Key(k)
	}

	// A page needs at least two bytes: key and link count.
	n := pb.count(2)
	out := make([]PageRecord, 0, n)
	for range n {
		k := key()
		// A link needs at least five bytes: target and weight.
		links := make([]model.Link, pb.count(5))
		for i := range links {
			links[i] = model.Link{Target: key(), Weight: math.Float32frombits(pb.readUint32())}
		}
		if pb.err != nil {
			break
		}
		out = append(out, PageRecord{Key: k, Page: &model.Page{Links: links}})
	}
	if err := pb.finish(); err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	return out, nil
}
