package firearm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// MagazineDef describes the magazine a Magazine firearm spawns with.
type MagazineDef struct {
	Count uint32       `yaml:"count"`
	Max   uint32       `yaml:"max"`
	Type  MagazineType `yaml:"type"`
}

// FirearmDef defines the static properties of a firearm loaded from YAML.
type FirearmDef struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Mechanism Kind    `yaml:"mechanism"`
	Capacity  uint32  `yaml:"capacity"`
	Caliber   Caliber `yaml:"caliber"`
	AutoCycle bool    `yaml:"auto_cycle"`
	// Unspawned is the starting ammunition. BoltAction keeps it lazy; pump
	// and revolver materialize it as live rounds; battery uses it as charge.
	Unspawned uint32 `yaml:"unspawned"`
	// Magazine is the starting magazine of a Magazine firearm; nil spawns empty.
	Magazine     *MagazineDef `yaml:"magazine"`
	AutoEjectMag bool         `yaml:"auto_eject_mag"`
	// MagazineTypes restricts which magazines a Magazine firearm seats; empty
	// accepts any.
	MagazineTypes []MagazineType `yaml:"magazine_types"`
	// InsertRequiresOpenBolt defaults to true for bolt actions when unset.
	InsertRequiresOpenBolt *bool   `yaml:"insert_requires_open_bolt"`
	Recoil                 float64 `yaml:"recoil"`
}

// Validate checks that the FirearmDef satisfies its invariants.
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *FirearmDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !d.Mechanism.Valid() {
		errs = append(errs, fmt.Errorf("unknown mechanism %q", d.Mechanism))
	}
	if d.Capacity == 0 {
		errs = append(errs, errors.New("Capacity must be > 0"))
	}
	if d.Unspawned > d.Capacity {
		errs = append(errs, fmt.Errorf("Unspawned %d exceeds Capacity %d", d.Unspawned, d.Capacity))
	}
	if d.Mechanism == KindPump && d.AutoCycle {
		errs = append(errs, errors.New("pump firearms are racked by hand and cannot auto_cycle"))
	}
	if d.Magazine != nil {
		switch {
		case d.Mechanism != KindMagazine:
			errs = append(errs, fmt.Errorf("magazine set on %q firearm", d.Mechanism))
		case d.Magazine.Max == 0 || d.Magazine.Max > d.Capacity:
			errs = append(errs, fmt.Errorf("magazine max %d must be in [1, %d]", d.Magazine.Max, d.Capacity))
		case d.Magazine.Count > d.Magazine.Max:
			errs = append(errs, fmt.Errorf("magazine count %d exceeds max %d", d.Magazine.Count, d.Magazine.Max))
		case len(d.MagazineTypes) > 0 && d.Magazine.Type != "" && !slices.Contains(d.MagazineTypes, d.Magazine.Type):
			errs = append(errs, fmt.Errorf("magazine type %q not in magazine_types %v", d.Magazine.Type, d.MagazineTypes))
		}
	}
	if len(d.MagazineTypes) > 0 && d.Mechanism != KindMagazine {
		errs = append(errs, fmt.Errorf("magazine_types set on %q firearm", d.Mechanism))
	}
	if d.Mechanism == KindMagazine && d.Unspawned > 0 {
		errs = append(errs, errors.New("magazine firearms load through magazine, not unspawned"))
	}
	if d.Recoil < 0 {
		errs = append(errs, errors.New("Recoil must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("firearm validation failed: %v", errs)
	}
	return nil
}

// NewState builds a fresh State for one instance of the definition.
//
// Precondition: d.Validate() == nil.
// Postcondition: the returned State satisfies its invariants.
func (d *FirearmDef) NewState() *State {
	var mech Mechanism
	switch d.Mechanism {
	case KindBattery:
		mech = NewBattery(d.Capacity, d.Unspawned)
	case KindBoltAction:
		requiresOpen := true
		if d.InsertRequiresOpenBolt != nil {
			requiresOpen = *d.InsertRequiresOpenBolt
		}
		mech = NewBoltAction(d.Capacity, d.Unspawned, requiresOpen)
	case KindPump:
		p := NewPump(d.Capacity)
		for i := uint32(0); i < d.Unspawned; i++ {
			p.Insert(CellLive)
		}
		mech = p
	case KindMagazine:
		m := NewMagazine(d.Capacity, d.AutoEjectMag).WithTypes(d.MagazineTypes...)
		if d.Magazine != nil {
			m.InsertMagazine(d.Magazine.Count, d.Magazine.Max)
		}
		mech = m
	case KindRevolver:
		r := NewRevolver(d.Capacity)
		for i := uint32(0); i < d.Unspawned; i++ {
			r.Insert(CellLive)
		}
		mech = r
	default:
		panic(fmt.Sprintf("firearm: FirearmDef.NewState: unknown mechanism %q", d.Mechanism))
	}
	return NewState(mech, d.Caliber, d.AutoCycle)
}

// LoadDefs reads all *.yaml files from dir, parses each as a FirearmDef,
// validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid FirearmDefs or the first encountered error.
func LoadDefs(dir string) ([]*FirearmDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDefs: cannot read directory %q: %w", dir, err)
	}

	var defs []*FirearmDef
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadDefs: cannot read file %q: %w", path, err)
		}
		var d FirearmDef
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("LoadDefs: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadDefs: invalid firearm in %q: %w", path, err)
		}
		defs = append(defs, &d)
	}
	return defs, nil
}
