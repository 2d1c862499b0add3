package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/standoff/core/encoding"
	"github.com/FocuswithJustin/standoff/core/errors"
)

// CodecGroup contains feature value codec operations.
type CodecGroup struct {
	Encode CodecEncodeCmd `cmd:"" help:"Encode items as a ^set, ^list or ^map value"`
	Decode CodecDecodeCmd `cmd:"" help:"Decode a ^set, ^list or ^map value, one item per line"`
}

// CodecEncodeCmd encodes command-line items.
type CodecEncodeCmd struct {
	Kind  string   `short:"k" help:"Collection kind" default:"list" enum:"set,list,map"`
	Items []string `arg:"" optional:"" help:"Items; map items are key=value"`
}

func (c *CodecEncodeCmd) Run(out io.Writer) error {
	var (
		encoded string
		err     error
	)
	switch encoding.Kind(c.Kind) {
	case encoding.KindSet:
		encoded, err = encoding.EncodeSet(encoding.NewStringSet(c.Items...))
	case encoding.KindList:
		encoded, err = encoding.EncodeList(c.Items)
	case encoding.KindMap:
		pairs := make([]encoding.Pair, 0, len(c.Items))
		for _, item := range c.Items {
			k, v, ok := strings.Cut(item, "=")
			if !ok {
				return errors.NewValidation("items", fmt.Sprintf("map item %q is not key=value", item))
			}
			pairs = append(pairs, encoding.Pair{Key: k, Value: v})
		}
		encoded, err = encoding.EncodePairs(pairs)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, encoded)
	return nil
}

// CodecDecodeCmd decodes an encoded collection.
type CodecDecodeCmd struct {
	Value string `arg:"" help:"Encoded value"`
}

func (c *CodecDecodeCmd) Run(out io.Writer) error {
	kind, ok := encoding.KindOf(c.Value)
	if !ok {
		return errors.NewFormat("collection", c.Value, "not a ^set, ^list or ^map value")
	}
	switch kind {
	case encoding.KindSet:
		set, err := encoding.DecodeToSet(c.Value)
		if err != nil {
			return err
		}
		for _, item := range set.Sorted() {
			fmt.Fprintln(out, item)
		}
	case encoding.KindList:
		items, err := encoding.DecodeToList(c.Value)
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Fprintln(out, item)
		}
	case encoding.KindMap:
		pairs, err := encoding.DecodeToPairs(c.Value)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			fmt.Fprintf(out, "%s=%s\n", p.Key, p.Value)
		}
	}
	return nil
}
