package measure

import (
	"github.com/mkadlec/binsim/distance"
	"github.com/mkadlec/binsim/similarity"
)

// measures is the static catalog. Canonical names follow the most recent
// naming of each coefficient; spellings from earlier catalog revisions
// survive as aliases so stored references keep resolving.
var measures = []Measure{
	// Similarity, positive-match family.
	{Name: "jaccard", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Jaccard},
	{Name: "tanimoto", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Tanimoto},
	{Name: "gleason", Kind: KindSimilarity, Family: FamilyPositiveMatch, Aliases: []string{"dice", "czekanowski", "nei_li", "sorenson_dice"}, Eval: similarity.Gleason},
	{Name: "sw_jaccard", Kind: KindSimilarity, Family: FamilyPositiveMatch, Aliases: []string{"jaccard_3w"}, Eval: similarity.SWJaccard},
	{Name: "dice1", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Dice1},
	{Name: "dice2", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Dice2},
	{Name: "sokal_sneath1", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.SokalSneath1},
	{Name: "kulczynski1", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Kulczynski1},
	{Name: "kulczynski2", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Kulczynski2},
	{Name: "johnson", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Johnson},
	{Name: "van_der_maarel", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.VanDerMaarel},
	{Name: "driver_kroeber", Kind: KindSimilarity, Family: FamilyPositiveMatch, Aliases: []string{"cosine", "ochiai1", "ochiai_1", "otsuka"}, Eval: similarity.DriverKroeber},
	{Name: "mcconnaughey", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.McConnaughey},
	{Name: "simpson", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Simpson},
	{Name: "braun_blanquet", Kind: KindSimilarity, Family: FamilyPositiveMatch, Aliases: []string{"braun_banquet"}, Eval: similarity.BraunBlanquet},
	{Name: "fager_mcgowan", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.FagerMcGowan},
	{Name: "sorgenfrei", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Sorgenfrei},
	{Name: "mountford", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.Mountford},
	{Name: "consonni_todeschini4", Kind: KindSimilarity, Family: FamilyPositiveMatch, Eval: similarity.ConsonniTodeschini4},
	{Name: "intersection", Kind: KindSimilarity, Family: FamilyPositiveMatch, Aliases: []string{"itersection"}, Eval: similarity.Intersection},

	// Similarity, full-table family.
	{Name: "smc", Kind: KindSimilarity, Family: FamilyFullTable, Aliases: []string{"sokal_michener"}, Eval: similarity.SMC},
	{Name: "austin_colwell", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.AustinColwell},
	{Name: "russell_rao", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.RussellRao},
	{Name: "faith", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Faith},
	{Name: "rogers_tanimoto", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.RogersTanimoto},
	{Name: "sokal_sneath2", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.SokalSneath2},
	{Name: "gower_legendre", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.GowerLegendre},
	{Name: "hamman", Kind: KindSimilarity, Family: FamilyFullTable, Aliases: []string{"hamann"}, Eval: similarity.Hamman},
	{Name: "inner_product", Kind: KindSimilarity, Family: FamilyFullTable, Aliases: []string{"innerproduct"}, Eval: similarity.InnerProduct},
	{Name: "gower", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Gower},
	{Name: "sokal_sneath3", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.SokalSneath3},
	{Name: "sokal_sneath4", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.SokalSneath4},
	{Name: "sokal_sneath3a", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.SokalSneath3a},
	{Name: "sokal_sneath4a", Kind: KindSimilarity, Family: FamilyFullTable, Aliases: []string{"sokal_sneath5", "ochiai2"}, Eval: similarity.SokalSneath4a},
	{Name: "rogot_goldberg", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.RogotGoldberg},
	{Name: "hawkins_dotson", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.HawkinsDotson},
	{Name: "harris_lahey", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.HarrisLahey},
	{Name: "forbes1", Kind: KindSimilarity, Family: FamilyFullTable, Aliases: []string{"forbesi"}, Eval: similarity.Forbes1},
	{Name: "forbes2", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Forbes2},
	{Name: "fossum", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Fossum},
	{Name: "tarwid", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Tarwid},
	{Name: "eyraud", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Eyraud},
	{Name: "tarantula", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Tarantula},
	{Name: "ample", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Ample},
	{Name: "goodman_kruskal1", Kind: KindSimilarity, Family: FamilyFullTable, Aliases: []string{"goodman_kruskal"}, Eval: similarity.GoodmanKruskal1},
	{Name: "goodman_kruskal2", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.GoodmanKruskal2},
	{Name: "anderberg", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.Anderberg},
	{Name: "baroni_urbani_buser1", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.BaroniUrbaniBuser1},
	{Name: "baroni_urbani_buser2", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.BaroniUrbaniBuser2},
	{Name: "consonni_todeschini1", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.ConsonniTodeschini1},
	{Name: "consonni_todeschini2", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.ConsonniTodeschini2},
	{Name: "consonni_todeschini3", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.ConsonniTodeschini3},
	{Name: "peirce3", Kind: KindSimilarity, Family: FamilyFullTable, Aliases: []string{"peirce"}, Eval: similarity.Peirce3},
	{Name: "gilbert_wells", Kind: KindSimilarity, Family: FamilyFullTable, Eval: similarity.GilbertWells},

	// Similarity, cross-product family.
	{Name: "yule1", Kind: KindSimilarity, Family: FamilyCrossProduct, Aliases: []string{"yuleq"}, Eval: similarity.Yule1},
	{Name: "yule2", Kind: KindSimilarity, Family: FamilyCrossProduct, Aliases: []string{"yulew"}, Eval: similarity.Yule2},
	{Name: "peirce1", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Peirce1},
	{Name: "peirce2", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Peirce2},
	{Name: "pearson_heron1", Kind: KindSimilarity, Family: FamilyCrossProduct, Aliases: []string{"phi"}, Eval: similarity.PearsonHeron1},
	{Name: "pearson_heron2", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.PearsonHeron2},
	{Name: "pearson1", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Pearson1},
	{Name: "pearson2", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Pearson2},
	{Name: "pearson3", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Pearson3},
	{Name: "cole", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Cole},
	{Name: "cole1", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Cole1},
	{Name: "cole2", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Cole2},
	{Name: "cohen", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Cohen},
	{Name: "maxwell_pilliner", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.MaxwellPilliner},
	{Name: "dennis", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Dennis},
	{Name: "dispersion", Kind: KindSimilarity, Family: FamilyCrossProduct, Aliases: []string{"disperson"}, Eval: similarity.Dispersion},
	{Name: "michael", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Michael},
	{Name: "scott", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Scott},
	{Name: "consonni_todeschini5", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.ConsonniTodeschini5},
	{Name: "stiles", Kind: KindSimilarity, Family: FamilyCrossProduct, Eval: similarity.Stiles},

	// Distance measures.
	{Name: "hamming", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Hamming},
	{Name: "euclid", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Euclid},
	{Name: "squared_euclid", Kind: KindDistance, Family: FamilyDifference, Eval: distance.SquaredEuclid},
	{Name: "canberra", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Canberra},
	{Name: "manhattan", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Manhattan},
	{Name: "mean_manhattan", Kind: KindDistance, Family: FamilyDifference, Eval: distance.MeanManhattan},
	{Name: "cityblock", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Cityblock},
	{Name: "minkowski", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Minkowski},
	{Name: "vari", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Vari},
	{Name: "size_difference", Kind: KindDistance, Family: FamilyDifference, Eval: distance.SizeDifference},
	{Name: "shape_difference", Kind: KindDistance, Family: FamilyDifference, Eval: distance.ShapeDifference},
	{Name: "pattern_difference", Kind: KindDistance, Family: FamilyDifference, Eval: distance.PatternDifference},
	{Name: "lance_williams", Kind: KindDistance, Family: FamilyDifference, Eval: distance.LanceWilliams},
	{Name: "bray_curtis", Kind: KindDistance, Family: FamilyDifference, Eval: distance.BrayCurtis},
	{Name: "hellinger", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Hellinger},
	{Name: "chord", Kind: KindDistance, Family: FamilyDifference, Eval: distance.Chord},
}
