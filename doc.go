// Package zimgraph builds the link graph of a ZIM archive and answers
// weighted distance queries over it.
//
// Every article becomes a node keyed by its interned path. A link at
// position i of n distinct links on a page has weight (i+1)/n and costs
// weight+1 to follow, so links further down a page are further away.
//
// # Quick Start
//
//	ctx := context.Background()
//	g, _ := zimgraph.OpenFile(ctx, "wikipedia_en_simple.zim")
//	defer g.Close()
//
//	stats, _ := g.Import(ctx)
//	fmt.Println(stats.Pages, "pages")
//
//	start, _ := g.Lookup("Aspirin")
//	target, _ := g.Lookup("Headache")
//	p, ok, _ := g.ShortestPath(ctx, start, target, 20) // give up beyond distance 20
//	if ok {
//	    titles, _ := g.ResolvePath(p)
//	    fmt.Println(p.Distance, titles)
//	}
//
// # Growing a Neighborhood
//
// Importing a full archive reads every article. To explore around a few
// articles only, seed a frontier expansion instead:
//
//	g.Expand(ctx, []string{"Aspirin"}, 2) // the seed plus two rounds of link targets
//
// # Closest Titles
//
// ClosestTitles runs the search to exhaustion within a distance band and
// returns a random sample of the articles it finalized:
//
//	near, _ := g.ClosestTitles(ctx, start, 5, 2, 4)
//
// The band's upper bound also caps the work done, so always pass a finite
// maximum on large graphs.
//
// # Sessions
//
// A built graph can be saved to any blobstore and loaded again for the
// same archive:
//
//	store := blobstore.NewLocalStore("./session")
//	g.Save(ctx, store)
//	g.Load(ctx, store)
//
// Save writes the interned vocabulary, the graph and a manifest holding
// BLAKE3 digests of both. Load verifies the digests and rejects sessions
// built from a different archive.
package zimgraph
