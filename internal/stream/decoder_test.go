package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/admission-chat/internal/domain"
)

// chunkReader hands out its chunks one Read at a time, like a network body
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

// drain collects frames and malformed errors until EOF
func drain(t *testing.T, d Decoder) ([]Frame, []*MalformedFrameError) {
	t.Helper()
	var frames []Frame
	var bad []*MalformedFrameError
	for {
		f, err := d.Next()
		if errors.Is(err, io.EOF) {
			return frames, bad
		}
		var m *MalformedFrameError
		if errors.As(err, &m) {
			bad = append(bad, m)
			continue
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

func TestParseFraming(t *testing.T) {
	f, err := ParseFraming("sse")
	require.NoError(t, err)
	assert.Equal(t, FramingSSE, f)
	assert.Equal(t, "text/event-stream", f.ContentType())

	f, err = ParseFraming("ndjson")
	require.NoError(t, err)
	assert.Equal(t, "application/x-ndjson", f.ContentType())

	_, err = ParseFraming("")
	assert.Error(t, err)
}

func TestNDJSONDecoder(t *testing.T) {
	body := &chunkReader{chunks: []string{
		`{"type":"sources","data":[{"category":"fees","filename":"fees.pdf","snippet":"Tuition"}]}` + "\n",
		`{"type":"content","data":"Fees `,
		`are"}` + "\n\n",
		`not json` + "\n",
		`{"type":"error","data":"retriever timeout"}` + "\n",
		`{"type":"mystery","data":1}` + "\n",
		`{"type":"content","data":" $10,000"}`, // no trailing newline
	}}

	frames, bad := drain(t, NewDecoder(FramingNDJSON, body))

	require.Len(t, frames, 4)
	assert.Equal(t, FrameSources, frames[0].Type)
	assert.Equal(t, []domain.Source{{Category: "fees", Filename: "fees.pdf", Snippet: "Tuition"}}, frames[0].Sources)
	assert.Equal(t, Frame{Type: FrameContent, Content: "Fees are"}, frames[1])
	assert.Equal(t, Frame{Type: FrameError, Error: "retriever timeout"}, frames[2])
	assert.Equal(t, Frame{Type: FrameContent, Content: " $10,000"}, frames[3])

	require.Len(t, bad, 2)
	assert.Equal(t, "invalid json", bad[0].Reason)
	assert.Equal(t, "unknown frame type", bad[1].Reason)
}

func TestNDJSONDecoder_ErrorObjectPayload(t *testing.T) {
	frames, bad := drain(t, NewDecoder(FramingNDJSON, strings.NewReader(`{"type":"error","data":{"code":500}}`+"\n")))
	assert.Empty(t, bad)
	require.Len(t, frames, 1)
	assert.Equal(t, `{"code":500}`, frames[0].Error)
}

func TestSSEDecoder_DataLinesInOrder(t *testing.T) {
	body := &chunkReader{chunks: []string{"data: Hello", "\n\ndata: World\n\n"}}

	frames, bad := drain(t, NewDecoder(FramingSSE, body))

	assert.Empty(t, bad)
	require.Len(t, frames, 2)
	assert.Equal(t, "Hello", frames[0].Content)
	assert.Equal(t, "World", frames[1].Content)
}

func TestSSEDecoder_NewlinesInsideChunk(t *testing.T) {
	body := &chunkReader{chunks: []string{
		"data: Fees:\n- $10,000\n- Note: per year\n\n",
		"data: \n\n",
		"data: Hostel\n\n",
	}}

	frames, bad := drain(t, NewDecoder(FramingSSE, body))

	assert.Empty(t, bad)
	var text strings.Builder
	for _, f := range frames {
		require.Equal(t, FrameContent, f.Type)
		text.WriteString(f.Content)
	}
	assert.Equal(t, "Fees:\n- $10,000\n- Note: per year\nHostel", text.String())
}

func TestSSEDecoder_EventsAndNoise(t *testing.T) {
	body := strings.Join([]string{
		": keepalive",
		"event: sources",
		`data: [{"category":"faq","filename":"faq.md","snippet":"Yes"}]`,
		"",
		"data:  leading space kept",
		"retry: 3000",
		"",
		"stray text",
		"event: error",
		"data: upstream busy",
		"",
		"event: sources",
		"data: {oops",
		"",
		"data: tail",
	}, "\r\n")

	frames, bad := drain(t, NewDecoder(FramingSSE, strings.NewReader(body)))

	require.Len(t, frames, 4)
	assert.Equal(t, FrameSources, frames[0].Type)
	assert.Equal(t, "faq.md", frames[0].Sources[0].Filename)
	assert.Equal(t, Frame{Type: FrameContent, Content: " leading space kept"}, frames[1])
	assert.Equal(t, Frame{Type: FrameError, Error: "upstream busy"}, frames[2])
	assert.Equal(t, Frame{Type: FrameContent, Content: "tail"}, frames[3])

	require.Len(t, bad, 2)
	assert.Equal(t, "stray text", bad[0].Raw)
	assert.Equal(t, "sources data is not a list", bad[1].Reason)
}
