package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "go.yaml.in/yaml/v3"

	"taskplan/internal/schedule"
)

func rec(client, task, sched string, meta ...Pair) Record {
	return Record{Key: Key{Client: client, Task: task}, Schedule: sched, Metadata: NewMetadata(meta...)}
}

func TestParseSectionName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want Key
		ok   bool
	}{
		{name: "task", in: "Client.Acme.Invoicing", want: Key{Client: "Acme", Task: "Invoicing"}, ok: true},
		{name: "prefix case", in: "client.Acme.Payroll", want: Key{Client: "Acme", Task: "Payroll"}, ok: true},
		{name: "padded parts", in: "Client. Acme . Payroll", want: Key{Client: "Acme", Task: "Payroll"}, ok: true},
		{name: "two segments", in: "Client.Acme"},
		{name: "four segments", in: "Client.Acme.Sub.Task"},
		{name: "other prefix", in: "Vendor.Acme.Payroll"},
		{name: "empty client", in: "Client..Payroll"},
		{name: "empty task", in: "Client.Acme."},
		{name: "default section", in: "DEFAULT"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSectionName(tt.in)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrBadSectionName))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyStringRoundTrip(t *testing.T) {
	t.Parallel()
	k := Key{Client: "Acme", Task: "Payroll"}
	assert.Equal(t, "Client.Acme.Payroll", k.String())
	got, err := ParseSectionName(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestPutLastWriteWinsKeepsPosition(t *testing.T) {
	t.Parallel()
	r := New()
	assert.False(t, r.Put(rec("Acme", "Invoicing", "every Monday")))
	assert.False(t, r.Put(rec("Acme", "Payroll", "days:1,15")))
	assert.True(t, r.Put(rec("Acme", "Invoicing", "everyday", Pair{"priority", "high"})))

	require.Equal(t, 2, r.Len())
	recs := r.Records()
	assert.Equal(t, "Invoicing", recs[0].Task)
	assert.Equal(t, "everyday", recs[0].Schedule)
	v, ok := recs[0].Metadata.Get("priority")
	assert.True(t, ok)
	assert.Equal(t, "high", v)
	assert.Equal(t, "Payroll", recs[1].Task)
}

func TestPutIdempotent(t *testing.T) {
	t.Parallel()
	load := func(r *Registry) {
		r.Put(rec("Acme", "Invoicing", "every Monday"))
		r.Put(rec("Beta", "Audit", "days:3"))
	}
	once, twice := New(), New()
	load(once)
	load(twice)
	load(twice)
	assert.Equal(t, once.Records(), twice.Records())
}

func TestMatchingIsolatesMalformed(t *testing.T) {
	t.Parallel()
	r := New()
	r.Put(rec("Acme", "Invoicing", "every Monday"))
	r.Put(rec("Acme", "Broken", "days:1,x"))
	r.Put(rec("Beta", "Daily", "everyday"))
	r.Put(rec("Beta", "Mystery", "fortnightly"))

	// Monday 2024-07-15.
	got := r.Matching(time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC))
	require.Len(t, got, 4)
	assert.True(t, got[0].Fired)
	assert.False(t, got[1].Fired)
	assert.True(t, errors.Is(got[1].Err, schedule.ErrMalformed))
	assert.True(t, got[2].Fired)
	assert.NoError(t, got[3].Err)
	assert.False(t, got[3].Fired)

	bad := r.Malformed()
	require.Len(t, bad, 1)
	assert.Equal(t, "Broken", bad[0].Record.Task)

	_, err := r.Expression(Key{Client: "Acme", Task: "Broken"})
	assert.Error(t, err)
	exp, err := r.Expression(Key{Client: "Acme", Task: "Invoicing"})
	require.NoError(t, err)
	assert.Equal(t, schedule.KindWeekly, exp.Kind)
	_, err = r.Expression(Key{Client: "Nobody", Task: "x"})
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	t.Parallel()
	r := New()
	r.Put(rec("Acme", "Payroll", "days:1"))
	got, ok := r.Get(Key{Client: "Acme", Task: "Payroll"})
	require.True(t, ok)
	assert.Equal(t, "days:1", got.Schedule)
	_, ok = r.Get(Key{Client: "Acme", Task: "Nope"})
	assert.False(t, ok)
}

func TestMetadataOrderAndOverride(t *testing.T) {
	t.Parallel()
	m := NewMetadata(Pair{"priority", "low"}, Pair{"description", "d"}, Pair{"priority", "high"})
	assert.Equal(t, []Pair{{"priority", "high"}, {"description", "d"}}, m.Pairs())
	assert.Equal(t, 2, m.Len())
	v, _ := m.Get("priority")
	assert.Equal(t, "high", v)

	pairs := m.Pairs()
	pairs[0].Value = "mutated"
	v, _ = m.Get("priority")
	assert.Equal(t, "high", v, "Pairs must return a copy")

	var zero Metadata
	_, ok := zero.Get("x")
	assert.False(t, ok)
	assert.Empty(t, zero.Pairs())
}

func TestMetadataMarshalKeepsOrder(t *testing.T) {
	t.Parallel()
	m := NewMetadata(Pair{"zeta", "one"}, Pair{"alpha", "two"})

	j, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"one","alpha":"two"}`, string(j))

	y, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "zeta: one\nalpha: two\n", string(y))
}
