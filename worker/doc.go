// Package worker validates batches of BPX documents in parallel.
//
// Every job carries its own voltage tolerance, so one batch can mix
// documents checked at different tolerances. Results come back in job
// order.
//
// Example usage:
//
//	v, _ := validator.New()
//	batch := worker.NewBatch(v, 4)
//
//	res := batch.Run(ctx, []worker.Job{
//	    {ID: "cell-a.json", Raw: a},
//	    {ID: "cell-b.yaml", Raw: b, Tolerance: worker.Tolerance(0.01)},
//	})
//	for _, r := range res.Results {
//	    if r.Error != nil {
//	        // Handle error
//	    }
//	    // Process r.Result
//	}
package worker
