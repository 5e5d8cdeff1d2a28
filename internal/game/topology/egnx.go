package topology

import "taxi-simulator/pkg/types"

// Positions are in map pixels: x grows east, y grows south.
var egnxNodes = []Node{
	{"STAND1a", types.NewVec2(846, 200)}, {"STAND1b", types.NewVec2(846, 215)},
	{"STAND2a", types.NewVec2(892, 200)}, {"STAND2b", types.NewVec2(892, 215)},
	{"STAND3a", types.NewVec2(938, 200)}, {"STAND3b", types.NewVec2(938, 215)},
	{"STAND4a", types.NewVec2(984, 200)}, {"STAND4b", types.NewVec2(984, 215)},
	{"STAND5a", types.NewVec2(1089, 200)}, {"STAND5b", types.NewVec2(1089, 215)},
	{"STAND6a", types.NewVec2(1135, 200)}, {"STAND6b", types.NewVec2(1135, 215)},
	{"STAND7a", types.NewVec2(1181, 200)}, {"STAND7b", types.NewVec2(1181, 215)},
	{"STAND8a", types.NewVec2(1227, 200)}, {"STAND8b", types.NewVec2(1227, 215)},
	{"STAND1N", types.NewVec2(846, 241)}, {"STAND2N", types.NewVec2(892, 241)},
	{"STAND3N", types.NewVec2(938, 241)}, {"STAND4N", types.NewVec2(984, 241)},
	{"STAND5N", types.NewVec2(1089, 241)}, {"STAND6N", types.NewVec2(1135, 241)},
	{"STAND7N", types.NewVec2(1181, 241)}, {"STAND8N", types.NewVec2(1227, 241)},
	{"AQ", types.NewVec2(790, 152)}, {"NQ", types.NewVec2(790, 241)},
	{"AR", types.NewVec2(1282, 152)}, {"NR", types.NewVec2(1282, 241)},
	{"AS", types.NewVec2(1036, 152)}, {"NS", types.NewVec2(1036, 241)},
	{"TXY_A1", types.NewVec2(1730, 152)}, {"RWY27_A1", types.NewVec2(1730, 90)},
	{"TXY_B1", types.NewVec2(1498, 152)}, {"RWY27_B1", types.NewVec2(1498, 90)},
	{"TXY_C1", types.NewVec2(675, 152)}, {"RWY09_C1", types.NewVec2(675, 90)},
	{"TXY_D1", types.NewVec2(287, 152)}, {"RWY09_D1", types.NewVec2(287, 90)},
	{"TXY_E1", types.NewVec2(190, 152)}, {"RWY09_E1", types.NewVec2(190, 90)},
}

var egnxEdges = []Edge{
	// Runway and its entries
	{"RWY27_A1", "TXY_A1"}, {"RWY27_A1", "RWY27_B1"},
	{"RWY27_B1", "TXY_B1"}, {"RWY27_B1", "RWY09_C1"},
	{"RWY09_C1", "TXY_C1"}, {"RWY09_C1", "RWY09_D1"},
	{"RWY09_D1", "RWY09_E1"}, {"RWY09_D1", "TXY_D1"},
	{"TXY_E1", "RWY09_E1"}, {"TXY_E1", "TXY_D1"},

	// Parallel taxiway
	{"TXY_C1", "TXY_D1"}, {"TXY_C1", "AQ"},
	{"AQ", "NQ"}, {"AQ", "AS"},
	{"AR", "AS"}, {"AR", "NR"}, {"AR", "TXY_B1"},
	{"TXY_B1", "TXY_A1"},

	// Apron taxilane
	{"NS", "AS"}, {"NS", "NQ"}, {"NS", "NR"},
	{"NS", "STAND1N"}, {"NS", "STAND2N"}, {"NS", "STAND3N"}, {"NS", "STAND4N"},
	{"NS", "STAND5N"}, {"NS", "STAND6N"}, {"NS", "STAND7N"}, {"NS", "STAND8N"},
	{"NQ", "STAND1N"}, {"NQ", "STAND2N"}, {"NQ", "STAND3N"}, {"NQ", "STAND4N"},
	{"NR", "STAND5N"}, {"NR", "STAND6N"}, {"NR", "STAND7N"}, {"NR", "STAND8N"},

	// Stands
	{"STAND1b", "STAND1N"}, {"STAND1b", "STAND1a"},
	{"STAND2b", "STAND2N"}, {"STAND2b", "STAND2a"},
	{"STAND3b", "STAND3N"}, {"STAND3b", "STAND3a"},
	{"STAND4b", "STAND4N"}, {"STAND4b", "STAND4a"},
	{"STAND5b", "STAND5N"}, {"STAND5b", "STAND5a"},
	{"STAND6b", "STAND6N"}, {"STAND6b", "STAND6a"},
	{"STAND7b", "STAND7N"}, {"STAND7b", "STAND7a"},
	{"STAND8b", "STAND8N"}, {"STAND8b", "STAND8a"},
}

// EGNX returns the compiled-in East Midlands airfield. It panics if the
// table is inconsistent.
func EGNX() *Airport {
	g := MustBuild(egnxNodes, egnxEdges)

	ap, err := NewAirport("EGNX", "East Midlands", g,
		[]types.NodeID{"STAND1a", "STAND2a", "STAND3a", "STAND4a", "STAND5a", "STAND6a", "STAND7a", "STAND8a"},
		[]Runway{
			{Name: "27", Entries: []types.NodeID{"RWY27_A1", "RWY27_B1"}},
			{Name: "09", Entries: []types.NodeID{"RWY09_C1", "RWY09_D1", "RWY09_E1"}},
		})
	if err != nil {
		panic(err)
	}
	return ap
}
