package query

import (
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/internal/uridecode"
	"github.com/indigo-web/feather/kv"
	"github.com/indigo-web/utils/uf"
)

// replace empty value (or so-called parameter without value) with the following string
const defaultEmptyValueContent = "1"

// Parse splits the query into key-value pairs and stores them into params. The data
// is decoded in-place, therefore the caller must own it and never modify it afterwards,
// as resulting strings refer to it.
func Parse(data []byte, params *kv.Storage) error {
	var key []byte

parseKey:
	if len(data) == 0 {
		return nil
	}

	for i := range data {
		switch data[i] {
		case '=':
			if i == 0 {
				return status.ErrBadQuery
			}

			key = data[:i]
			data = data[i+1:]
			goto parseValue
		case '&':
			if i > 0 {
				if err := add(params, data[:i], nil); err != nil {
					return err
				}
			}

			data = data[i+1:]
			goto parseKey
		case '+':
			data[i] = ' '
		}
	}

	return add(params, data, nil)

parseValue:
	for i := range data {
		switch data[i] {
		case '&':
			// an explicit equal mark with no value behind is kept empty on purpose
			if err := add(params, key, data[:i:i]); err != nil {
				return err
			}

			data = data[i+1:]
			goto parseKey
		case '+':
			data[i] = ' '
		}
	}

	return add(params, key, data[:len(data):len(data)])
}

func add(params *kv.Storage, key, value []byte) error {
	key, err := uridecode.Decode(key, key[:0])
	if err != nil {
		return status.ErrBadQuery
	}

	if value == nil {
		params.Add(uf.B2S(key), defaultEmptyValueContent)
		return nil
	}

	value, err = uridecode.Decode(value, value[:0])
	if err != nil {
		return status.ErrBadQuery
	}

	params.Add(uf.B2S(key), uf.B2S(value))
	return nil
}
