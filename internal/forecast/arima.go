package forecast

import (
	"errors"
	"math"
)

// ARIMAModel 是在差分序列上按条件平方和拟合的 ARIMA(1,1,1)。
// w_t = phi*w_{t-1} + theta*e_{t-1} + e_t，其中 w 为一阶差分。
type ARIMAModel struct {
	Phi    float64
	Theta  float64
	Sigma2 float64

	diffs  []float64
	innovs []float64
}

// FitARIMA 在原始序列上拟合 ARIMA(1,1,1)。
// 序列过短或拟合退化时返回错误，调用方应降级处理。
func FitARIMA(values []float64) (*ARIMAModel, error) {
	if len(values) < 5 {
		return nil, errors.New("forecast: 序列过短，无法拟合 ARIMA")
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("forecast: 序列包含非有限值，无法拟合 ARIMA")
		}
	}

	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}

	// 两阶段网格搜索：先粗扫参数平面，再在最优点附近细化。
	bestPhi, bestTheta := searchCSS(diffs, -0.98, 0.98, 0.04, 0, 0)
	bestPhi, bestTheta = searchCSS(diffs, -0.04, 0.04, 0.002, bestPhi, bestTheta)

	innovs, sse := cssResiduals(diffs, bestPhi, bestTheta)
	dof := len(diffs) - 2
	if dof < 1 {
		dof = 1
	}
	sigma2 := sse / float64(dof)
	if math.IsNaN(sigma2) || math.IsInf(sigma2, 0) {
		return nil, errors.New("forecast: ARIMA 拟合发散")
	}

	return &ARIMAModel{
		Phi:    bestPhi,
		Theta:  bestTheta,
		Sigma2: sigma2,
		diffs:  diffs,
		innovs: innovs,
	}, nil
}

// searchCSS 在 [lo,hi] 偏移范围内以 step 为步长搜索最小条件平方和。
func searchCSS(diffs []float64, lo, hi, step, centerPhi, centerTheta float64) (float64, float64) {
	bestPhi, bestTheta := centerPhi, centerTheta
	bestSSE := math.Inf(1)

	for dPhi := lo; dPhi <= hi+1e-12; dPhi += step {
		phi := clampParam(centerPhi + dPhi)
		for dTheta := lo; dTheta <= hi+1e-12; dTheta += step {
			theta := clampParam(centerTheta + dTheta)
			_, sse := cssResiduals(diffs, phi, theta)
			if sse < bestSSE {
				bestSSE = sse
				bestPhi, bestTheta = phi, theta
			}
		}
	}

	return bestPhi, bestTheta
}

func clampParam(v float64) float64 {
	const limit = 0.99
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// cssResiduals 递推条件残差，w_{-1} 与 e_{-1} 取 0。
func cssResiduals(diffs []float64, phi, theta float64) ([]float64, float64) {
	innovs := make([]float64, len(diffs))
	sse := 0.0
	for t := range diffs {
		pred := 0.0
		if t > 0 {
			pred = phi*diffs[t-1] + theta*innovs[t-1]
		}
		e := diffs[t] - pred
		innovs[t] = e
		sse += e * e
	}
	return innovs, sse
}

// forecast 生成 horizon 步点预测与 90% 置信区间(alpha=0.10)。
func (m *ARIMAModel) forecast(last float64, horizon int) (points, lower, upper []float64) {
	points = make([]float64, horizon)
	lower = make([]float64, horizon)
	upper = make([]float64, horizon)

	wPrev := m.diffs[len(m.diffs)-1]
	ePrev := m.innovs[len(m.innovs)-1]

	// 差分空间逐步外推，再累加回原水平。
	level := last
	wHat := m.Phi*wPrev + m.Theta*ePrev
	psi := 1.0    // ARMA psi 权重 ψ_j
	psiSum := 1.0 // 积分后权重 Ψ_j = Σψ_i
	varAcc := 1.0 // Σ Ψ_j²

	for h := 0; h < horizon; h++ {
		if h > 0 {
			wHat = m.Phi * wHat
			if h == 1 {
				psi = m.Phi + m.Theta
			} else {
				psi = m.Phi * psi
			}
			psiSum += psi
			varAcc += psiSum * psiSum
		}
		level += wHat
		points[h] = level

		se := math.Sqrt(m.Sigma2 * varAcc)
		if math.IsNaN(se) || math.IsInf(se, 0) {
			// 区间不可得时收敛到点预测。
			lower[h] = level
			upper[h] = level
			continue
		}
		lower[h] = level - z90*se
		upper[h] = level + z90*se
	}

	return points, lower, upper
}

// OneStepInSample 返回与输入等长的样本内一步预测，首位为 NaN。
func (m *ARIMAModel) OneStepInSample(values []float64) []float64 {
	preds := make([]float64, len(values))
	for t := range preds {
		switch {
		case t == 0:
			preds[t] = math.NaN()
		case t == 1:
			// 第一个差分没有前置信息，预测差分为0。
			preds[t] = values[0]
		default:
			wHat := m.Phi*m.diffs[t-2] + m.Theta*m.innovs[t-2]
			preds[t] = values[t-1] + wHat
		}
	}
	return preds
}

// AR1Coefficients 对对数收益拟合 r_t = a + b*r_{t-1}。
// 要求全部观测为正且至少有10个点，否则 ok 为 false。
func AR1Coefficients(values []float64) (a, b float64, returns []float64, ok bool) {
	if len(values) < 10 {
		return 0, 0, nil, false
	}
	for _, v := range values {
		if v <= 0 {
			return 0, 0, nil, false
		}
	}

	returns = logReturns(values)
	if len(returns) < 3 {
		return 0, 0, nil, false
	}

	x := returns[:len(returns)-1]
	y := returns[1:]
	mx, my := mean(x), mean(y)

	varX, cov := 0.0, 0.0
	for i := range x {
		dx := x[i] - mx
		varX += dx * dx
		cov += dx * (y[i] - my)
	}
	if varX == 0 {
		return my, 0, returns, true
	}

	b = cov / varX
	a = my - b*mx
	return a, b, returns, true
}
