// Package costs estimates the USD cost of a chat completion from the token
// usage the upstream reports.
//
// Prices are per 1K tokens and come from the costs.pricing section of the
// configuration, keyed by provider and model:
//
//	costs:
//	  pricing:
//	    openai:
//	      gpt-3.5-turbo: {prompt: 0.0005, completion: 0.0015}
//	    default:
//	      default: {prompt: 0.001, completion: 0.002}
//
// A dated model name such as "gpt-3.5-turbo-0125" is priced by the longest
// configured name it starts with. Unknown models fall back to default/default.
//
// # Usage
//
//	calculator := costs.NewCalculator(&cfg.Costs)
//	estimate, err := calculator.CalculateProviderResponseCost(resp, "openai")
//	if err != nil {
//		return err
//	}
//	fmt.Fprintln(os.Stderr, estimate) // Request Cost: $0.000031
package costs
