package monitor

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/content"
)

func ptr(s string) *string { return &s }

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func TestClassifyPriority(t *testing.T) {
	img := pngData(t)

	cases := []struct {
		name string
		snap Snapshot
		want content.Content
	}{
		{"empty", Snapshot{}, nil},
		{"text only", Snapshot{Text: ptr("hi")}, content.Text("hi")},
		{"text beats image and files", Snapshot{Text: ptr("hi"), Image: img, Files: []string{"/a"}}, content.Text("hi")},
		{"empty text falls through to image", Snapshot{Text: ptr(""), Image: img}, content.Image(img)},
		{"image beats files", Snapshot{Image: img, Files: []string{"/a"}}, content.Image(img)},
		{"first file wins", Snapshot{Files: []string{"/a/one.txt", "/b/two.txt"}}, content.File("/a/one.txt")},
		{"blank file list", Snapshot{Files: []string{""}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.snap)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyDecodeError(t *testing.T) {
	_, err := Classify(Snapshot{Image: []byte("not an image"), Files: []string{"/a"}})
	assert.ErrorIs(t, err, content.ErrDecode)

	_, err = Classify(Snapshot{Text: ptr(string([]byte{0xff, 0xfe}))})
	assert.ErrorIs(t, err, content.ErrDecode)
}

func TestDetectorIgnoresInitialContents(t *testing.T) {
	pb := clip.NewMemory()
	require.NoError(t, pb.WriteText("already there"))

	d := NewDetector(pb)
	c, err := d.Poll()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDetectorOneItemPerChange(t *testing.T) {
	pb := clip.NewMemory()
	d := NewDetector(pb)

	var states []State
	d.onState = func(s State) { states = append(states, s) }

	pb.Set(ptr("copied"), pngData(t), nil)
	c, err := d.Poll()
	require.NoError(t, err)
	assert.Equal(t, content.Text("copied"), c)
	assert.Equal(t, []State{Classifying, Idle}, states)
	assert.Equal(t, Idle, d.State())

	// No change since the last poll.
	c, err = d.Poll()
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Len(t, states, 2)

	// Same content copied again is a new change.
	pb.Set(ptr("copied"), nil, nil)
	c, err = d.Poll()
	require.NoError(t, err)
	assert.Equal(t, content.Text("copied"), c)
}

func TestDetectorUnclassifiableChange(t *testing.T) {
	pb := clip.NewMemory()
	d := NewDetector(pb)

	require.NoError(t, pb.Clear())
	c, err := d.Poll()
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Equal(t, Idle, d.State())
}

func TestDetectorObserve(t *testing.T) {
	pb := clip.NewMemory()
	d := NewDetector(pb)

	require.NoError(t, clip.Write(pb, content.Text("restored")))
	d.Observe()

	c, err := d.Poll()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "classifying", Classifying.String())
}
