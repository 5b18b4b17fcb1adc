package bulk

import (
	"bytes"
	"context"
	"fmt"

	"github.com/escrud/escrud.go/pkg/docwriter"
	"github.com/escrud/escrud.go/pkg/logger"
	"github.com/escrud/escrud.go/pkg/mapping"
)

// Builder writes bulk bodies using the strategies of a registry.
type Builder struct {
	registry *mapping.Registry
	logger   logger.Logger
}

func NewBuilder(registry *mapping.Registry, l logger.Logger) *Builder {
	if l == nil {
		l = logger.Nop{}
	}
	return &Builder{registry: registry, logger: l}
}

// Build writes one header line per item, followed by the document line for
// index operations, in the order given. Nothing is returned unless every
// item was written.
func (b *Builder) Build(ctx context.Context, items []Item) ([]byte, error) {
	var buf bytes.Buffer
	for i := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.write(&buf, &items[i]); err != nil {
			return nil, fmt.Errorf("bulk item %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func (b *Builder) write(buf *bytes.Buffer, item *Item) error {
	s := b.registry.Resolve(item.Type)
	index := s.IndexName(item.Type)
	docType := s.DocumentType(item.Type)
	if err := CheckIndexName(index, docType); err != nil {
		return err
	}

	b.logger.Debug("bulk item", "op", item.Op.String(), "index", index, "type", docType, "id", item.ID)

	header := docwriter.NewJSONWriterTo(buf)
	if err := writeHeader(header, &item.Descriptor, index, docType); err != nil {
		return err
	}
	buf.WriteByte('\n')

	if item.Op == OpDelete {
		return nil
	}

	doc := docwriter.NewJSONWriterTo(buf)
	if err := s.WriteEntity(doc, item.Entity, mapping.Guard{}); err != nil {
		return fmt.Errorf("%s %s: %w", docType, item.ID, err)
	}
	if err := doc.Err(); err != nil {
		return err
	}
	buf.WriteByte('\n')
	return nil
}

func writeHeader(w *docwriter.JSONWriter, d *Descriptor, index, docType string) error {
	w.StartObject()
	w.Property(d.Op.String())
	w.StartObject()

	props := [][2]string{{"_index", index}, {"_type", docType}, {"_id", d.ID}}
	if d.Routing != nil {
		if d.Routing.Parent != "" {
			props = append(props, [2]string{"_parent", d.Routing.Parent})
		}
		if d.Routing.Routing != "" {
			props = append(props, [2]string{"_routing", d.Routing.Routing})
		}
	}
	for _, p := range props {
		w.Property(p[0])
		if err := w.Value(p[1]); err != nil {
			return err
		}
	}

	w.EndObject()
	w.EndObject()
	return w.Err()
}
