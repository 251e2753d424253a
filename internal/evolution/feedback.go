// Package evolution implements the evolutionary-query fitness feedback
// loop: drain the proxy's eval_fitness queue, substitute bound
// values into the fitness-function text, invoke the injected symbolic
// runner, sum the numeric results, and answer the peer.
package evolution

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/internal/queryproxy"
	"github.com/singnet/dasbus/internal/wireproto/queryanswer"
)

var log = logging.Scope("evolution")

// EvalFitness drains everything queued on proxy's eval_fitness channel,
// scores each one against the fitness function, and - if any were scored -
// sends the whole bundle back as one eval_fitness_response frame.
func EvalFitness(proxy *queryproxy.Evolution) error {
	queued := proxy.DrainEvalFitness()
	if len(queued) == 0 {
		return nil
	}

	var bundle []string
	for _, token := range queued {
		if token == queryproxy.EvalFitness {
			continue
		}
		answer, err := queryanswer.Parse(token)
		if err != nil {
			log.Warnw("skipping malformed eval_fitness token", "error", err)
			continue
		}
		fitness, err := computeFitness(proxy.FitnessFunction, answer.Bindings(true), proxy.Runner)
		if err != nil {
			log.Errorw("error computing fitness", "error", err)
			continue
		}
		bundle = append(bundle, strconv.FormatFloat(fitness, 'f', -1, 64))
	}

	if len(bundle) == 0 {
		return nil
	}
	return proxy.ToRemotePeer(queryproxy.EvalFitnessResponse, bundle)
}

// computeFitness substitutes every "$name" occurrence in fitnessFunction
// with its bound value's text, invokes runner, and sums every numeric atom
// in the (possibly nested) result. Non-numeric results are logged and
// skipped.
func computeFitness(fitnessFunction string, bindings map[string]string, runner queryproxy.FitnessRunner) (float64, error) {
	expr := fitnessFunction
	for name, value := range bindings {
		expr = strings.ReplaceAll(expr, "$"+name, value)
	}

	result, err := runner(fmt.Sprintf("!%s", expr))
	if err != nil {
		return 0, err
	}

	var fitness float64
	for _, outer := range result {
		for _, atom := range outer {
			v, err := strconv.ParseFloat(atom, 64)
			if err != nil {
				log.Warnw("invalid fitness value", "atom", atom, "error", err)
				continue
			}
			fitness += v
		}
	}
	log.Debugw("fitness computed", "expression", expr, "fitness", fitness)
	return fitness, nil
}
