package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCollection_EmptyBody(t *testing.T) {
	for _, body := range []string{"", "  ", `""`} {
		items, err := decodeCollection([]byte(body))
		require.NoError(t, err, "body %q", body)
		assert.Empty(t, items, "body %q", body)
		assert.NotNil(t, items, "body %q", body)
	}
}

func TestDecodeCollection_BareArray(t *testing.T) {
	items, err := decodeCollection([]byte(`[{"id":1},{"id":2}]`))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDecodeCollection_DataProperty(t *testing.T) {
	items, err := decodeCollection([]byte(`{"data":[{"id":1}],"total":1}`))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDecodeCollection_ContentProperty(t *testing.T) {
	items, err := decodeCollection([]byte(`{"content":[{"id":1},{"id":2}],"totalPages":1}`))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDecodeCollection_DataWinsOverContent(t *testing.T) {
	body := `{"content":[{"id":9}],"data":[{"id":1},{"id":2}]}`
	items, err := decodeCollection([]byte(body))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDecodeCollection_FirstArrayPropertyInDocumentOrder(t *testing.T) {
	// Neither "data" nor "content" present: the first property holding an
	// array wins, in document order, skipping non-array properties.
	body := `{"total":2,"requestServices":[{"id":1},{"id":2}],"extra":[{"id":9}]}`
	items, err := decodeCollection([]byte(body))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.JSONEq(t, `{"id":1}`, string(items[0]))
}

func TestDecodeCollection_NoArrayAnywhere(t *testing.T) {
	items, err := decodeCollection([]byte(`{"message":"ok","count":0}`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeCollection_NonObjectNonArray(t *testing.T) {
	items, err := decodeCollection([]byte(`"unexpected"`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeCollection_MalformedArray(t *testing.T) {
	_, err := decodeCollection([]byte(`[{"id":1}`))
	assert.Error(t, err)
}

func TestDecodeItems(t *testing.T) {
	type row struct {
		ID int64 `json:"id"`
	}

	rows, err := decodeItems[row]([]byte(`{"data":[{"id":5},{"id":7}]}`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(5), rows[0].ID)
	assert.Equal(t, int64(7), rows[1].ID)
}

func TestEmptyEntityBody(t *testing.T) {
	assert.True(t, emptyEntityBody(nil))
	assert.True(t, emptyEntityBody([]byte("  ")))
	assert.True(t, emptyEntityBody([]byte(`""`)))
	assert.True(t, emptyEntityBody([]byte("null")))
	assert.False(t, emptyEntityBody([]byte(`{"id":1}`)))
}

func TestUnmarshalEntity_BareObject(t *testing.T) {
	var got struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, unmarshalEntity([]byte(`{"id":3}`), &got))
	assert.Equal(t, int64(3), got.ID)
}

func TestUnmarshalEntity_WrappedInData(t *testing.T) {
	var got struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, unmarshalEntity([]byte(`{"data":{"id":3},"status":"ok"}`), &got))
	assert.Equal(t, int64(3), got.ID)
}

func TestUnmarshalEntity_EmptyBodyErrors(t *testing.T) {
	var got struct {
		ID int64 `json:"id"`
	}
	assert.Error(t, unmarshalEntity(nil, &got))
	assert.Error(t, unmarshalEntity([]byte("  \n"), &got))
}

func TestTopLevelProperties_PreservesDocumentOrder(t *testing.T) {
	props, err := topLevelProperties([]byte(`{"z":1,"a":[2],"m":"x"}`))
	require.NoError(t, err)
	require.Len(t, props, 3)
	assert.Equal(t, "z", props[0].key)
	assert.Equal(t, "a", props[1].key)
	assert.Equal(t, "m", props[2].key)
}
