package firearm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
)

func TestFirearmDef_Validate_RejectsEmpty(t *testing.T) {
	d := &firearm.FirearmDef{}
	assert.Error(t, d.Validate())
}

func TestFirearmDef_Validate_AcceptsMinimal(t *testing.T) {
	d := &firearm.FirearmDef{ID: "r", Name: "Revolver", Mechanism: firearm.KindRevolver, Capacity: 6}
	assert.NoError(t, d.Validate())
}

func TestFirearmDef_Validate_PumpCannotAutoCycle(t *testing.T) {
	d := &firearm.FirearmDef{ID: "p", Name: "Pump", Mechanism: firearm.KindPump, Capacity: 6, AutoCycle: true}
	assert.Error(t, d.Validate())
}

func TestFirearmDef_Validate_MagazineBounds(t *testing.T) {
	d := &firearm.FirearmDef{
		ID: "m", Name: "Mag", Mechanism: firearm.KindMagazine, Capacity: 10,
		Magazine: &firearm.MagazineDef{Count: 11, Max: 10},
	}
	assert.Error(t, d.Validate())
	d.Magazine = &firearm.MagazineDef{Count: 5, Max: 30}
	assert.Error(t, d.Validate())
	d.Magazine = &firearm.MagazineDef{Count: 10, Max: 10}
	assert.NoError(t, d.Validate())
}

func TestFirearmDef_Validate_MagazineOnlyForMagazineKind(t *testing.T) {
	d := &firearm.FirearmDef{
		ID: "b", Name: "Bolt", Mechanism: firearm.KindBoltAction, Capacity: 5,
		Magazine: &firearm.MagazineDef{Count: 1, Max: 5},
	}
	assert.Error(t, d.Validate())
}

func TestFirearmDef_Validate_MagazineTypes(t *testing.T) {
	d := &firearm.FirearmDef{
		ID: "m", Name: "Mag", Mechanism: firearm.KindMagazine, Capacity: 10,
		MagazineTypes: []firearm.MagazineType{"pistol"},
		Magazine:      &firearm.MagazineDef{Count: 5, Max: 10, Type: "drum"},
	}
	assert.Error(t, d.Validate(), "starting magazine of a foreign type")
	d.Magazine.Type = "pistol"
	require.NoError(t, d.Validate())
	assert.True(t, d.NewState().AcceptsMagazineType("pistol"))
	assert.False(t, d.NewState().AcceptsMagazineType("drum"))

	r := &firearm.FirearmDef{
		ID: "r", Name: "Revolver", Mechanism: firearm.KindRevolver, Capacity: 6,
		MagazineTypes: []firearm.MagazineType{"pistol"},
	}
	assert.Error(t, r.Validate())
}

func TestFirearmDef_Validate_UnspawnedWithinCapacity(t *testing.T) {
	d := &firearm.FirearmDef{ID: "b", Name: "Bolt", Mechanism: firearm.KindBoltAction, Capacity: 5, Unspawned: 6}
	assert.Error(t, d.Validate())
}

func TestFirearmDef_NewState_PerVariant(t *testing.T) {
	tests := []struct {
		def   firearm.FirearmDef
		shots uint32
	}{
		{firearm.FirearmDef{Mechanism: firearm.KindBattery, Capacity: 20, Unspawned: 12}, 12},
		{firearm.FirearmDef{Mechanism: firearm.KindBoltAction, Capacity: 5, Unspawned: 4}, 4},
		{firearm.FirearmDef{Mechanism: firearm.KindPump, Capacity: 6, Unspawned: 6}, 6},
		{firearm.FirearmDef{Mechanism: firearm.KindMagazine, Capacity: 30, Magazine: &firearm.MagazineDef{Count: 25, Max: 30}}, 25},
		{firearm.FirearmDef{Mechanism: firearm.KindRevolver, Capacity: 6, Unspawned: 3}, 3},
	}
	for _, tc := range tests {
		t.Run(string(tc.def.Mechanism), func(t *testing.T) {
			s := tc.def.NewState()
			assert.Equal(t, tc.def.Mechanism, s.Kind())
			assert.Equal(t, tc.def.Capacity, s.Capacity())
			assert.Equal(t, tc.shots, s.ShotsLeft())
		})
	}
}

func TestFirearmDef_NewState_PumpMaterializesRounds(t *testing.T) {
	d := firearm.FirearmDef{Mechanism: firearm.KindPump, Capacity: 4, Unspawned: 4}
	p, ok := d.NewState().Mechanism().(*firearm.Pump)
	require.True(t, ok)
	assert.Equal(t, uint32(0), p.Unspawned())
	assert.Len(t, p.Reserve(), 4)
}

func TestFirearmDef_NewState_BoltPolicyDefaultsToOpenBolt(t *testing.T) {
	d := firearm.FirearmDef{Mechanism: firearm.KindBoltAction, Capacity: 4}
	b, ok := d.NewState().Mechanism().(*firearm.BoltAction)
	require.True(t, ok)
	assert.True(t, b.InsertRequiresOpenBolt())

	no := false
	d.InsertRequiresOpenBolt = &no
	b = d.NewState().Mechanism().(*firearm.BoltAction)
	assert.False(t, b.InsertRequiresOpenBolt())
}

func TestLoadDefs_LoadsYAML(t *testing.T) {
	dir := t.TempDir()
	content := `id: mosin
name: Mosin
mechanism: bolt_action
capacity: 5
caliber: 762x54r
unspawned: 5
recoil: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mosin.yaml"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0644))

	defs, err := firearm.LoadDefs(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	d := defs[0]
	assert.Equal(t, "mosin", d.ID)
	assert.Equal(t, firearm.KindBoltAction, d.Mechanism)
	assert.Equal(t, uint32(5), d.Capacity)
	assert.Equal(t, firearm.Caliber("762x54r"), d.Caliber)
	assert.InDelta(t, 2.5, d.Recoil, 1e-9)
}

func TestLoadDefs_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nname: Bad\nmechanism: laser\ncapacity: 1\n"), 0644))
	_, err := firearm.LoadDefs(dir)
	assert.Error(t, err)
}

func TestLoadDefs_MissingDir(t *testing.T) {
	_, err := firearm.LoadDefs(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := firearm.NewRegistry()
	a := &firearm.FirearmDef{ID: "b"}
	b := &firearm.FirearmDef{ID: "a"}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	assert.Error(t, r.Register(a))

	got, ok := r.Def("b")
	require.True(t, ok)
	assert.Same(t, a, got)
	_, ok = r.Def("zzz")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "a", r.All()[0].ID)
}
