package action

import (
	"fmt"
	"net/http"

	"mvc-server/internal/demo/service"
	"mvc-server/internal/demo/store"
)

//mvc:controller
//mvc:path /demo
type DemoAction struct {
	DemoService service.IDemoService `autowired:""`
	Counter     *store.VisitCounter  `autowired:"visitCounter"`
}

//mvc:route /query
func (d *DemoAction) Query(w http.ResponseWriter, r *http.Request, name string) error {
	result, err := d.DemoService.Get(r.Context(), name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, result)
	return err
}

//mvc:route /add
func (d *DemoAction) Add(w http.ResponseWriter, r *http.Request, a, b int) {
	_, _ = fmt.Fprintf(w, "%d+%d=%d", a, b, a+b)
}

//mvc:route /remove
func (d *DemoAction) Remove(w http.ResponseWriter, r *http.Request, id int) {
}

//mvc:route /visits
func (d *DemoAction) Visits(w http.ResponseWriter, r *http.Request, name string) error {
	n, err := d.Counter.Count(r.Context(), name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s visited %d times", name, n)
	return err
}

//mvc:route /forget
func (d *DemoAction) Forget(w http.ResponseWriter, r *http.Request, name string) error {
	removed, err := d.Counter.Forget(r.Context(), name)
	if err != nil {
		return err
	}
	if !removed {
		_, err = fmt.Fprintf(w, "%s was never counted", name)
		return err
	}
	_, err = fmt.Fprintf(w, "%s forgotten", name)
	return err
}

// Top lists the n most visited names, one "name count" line each.
//
//mvc:route /top
func (d *DemoAction) Top(w http.ResponseWriter, r *http.Request, n int) error {
	visits, err := d.Counter.Top(r.Context(), int64(n))
	if err != nil {
		return err
	}
	for _, v := range visits {
		if _, err := fmt.Fprintf(w, "%s %d\n", v.Name, v.Count); err != nil {
			return err
		}
	}
	return nil
}
