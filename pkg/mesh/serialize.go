package mesh

import (
	"go.uber.org/multierr"

	"github.com/Faultbox/smf/pkg/parser"
	"github.com/Faultbox/smf/pkg/smf"
)

// Serialize replays m through s: header, attribute arrays in header
// order, triangles, then metadata. s is always closed.
func Serialize(m *Mesh, s parser.Serializer) (err error) {
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	h := m.Header()
	if err := s.SerializeHeader(h); err != nil {
		return err
	}

	if len(h.Attributes()) > 0 && h.VertexCount() > 0 {
		if err := serializeArrays(m, s); err != nil {
			return err
		}
	}

	if h.Triangles().Count() > 0 {
		tw, err := s.SerializeTrianglesStart()
		if err != nil {
			return err
		}
		for _, t := range m.Triangles() {
			if err := tw.SerializeTriangle(t[0], t[1], t[2]); err != nil {
				return err
			}
		}
		if err := tw.Close(); err != nil {
			return err
		}
	}

	for _, md := range m.Metadata() {
		if err := s.SerializeMetadata(md.Schema, md.Data); err != nil {
			return err
		}
	}
	return nil
}

func serializeArrays(m *Mesh, s parser.Serializer) error {
	aw, err := s.SerializeVertexDataNonInterleavedStart()
	if err != nil {
		return err
	}
	count := m.Header().VertexCount()
	for _, arr := range m.Arrays() {
		vw, err := aw.SerializeData(arr.Attribute.Name())
		if err != nil {
			return err
		}
		for i := uint64(0); i < count; i++ {
			switch arr.Attribute.Kind() {
			case smf.KindIntegerSigned:
				err = vw.SerializeSigned(arr.SignedAt(i)...)
			case smf.KindIntegerUnsigned:
				err = vw.SerializeUnsigned(arr.UnsignedAt(i)...)
			default:
				err = vw.SerializeFloat(arr.FloatAt(i)...)
			}
			if err != nil {
				return err
			}
		}
		if err := vw.Close(); err != nil {
			return err
		}
	}
	return aw.Close()
}
